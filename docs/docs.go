// Package docs registers the OpenAPI document served under /swagger.
// Regenerate with: swag init -g cmd/marketplace-api/main.go
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/api/admin/config": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Non-secret configuration. Admins only.",
                "produces": ["application/json"],
                "tags": ["admin"],
                "summary": "Settings summary",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.ConfigSummary"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.Failure"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/response.Failure"}}
                }
            }
        },
        "/api/auth/callback/credentials": {
            "post": {
                "description": "JSON bodies get the session envelope. Form posts are redirected to callbackUrl, or to /login?error=CredentialsSignin on failure.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Sign in with email and password",
                "parameters": [
                    {"description": "Credentials", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ports.Credentials"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Session"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.Failure"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.Failure"}}
                }
            }
        },
        "/api/auth/callback/{provider}": {
            "get": {
                "description": "Sets the session cookie and redirects. Failures redirect to /login?error=<code>.",
                "tags": ["auth"],
                "summary": "Finish an OAuth sign-in",
                "parameters": [
                    {"type": "string", "description": "Provider id", "name": "provider", "in": "path", "required": true},
                    {"type": "string", "description": "Authorization code", "name": "code", "in": "query", "required": true},
                    {"type": "string", "description": "State issued at sign-in", "name": "state", "in": "query", "required": true}
                ],
                "responses": {"302": {"description": "Found"}}
            }
        },
        "/api/auth/providers": {
            "get": {
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "List sign-in providers",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"$ref": "#/definitions/handler.providerInfo"}}}
                }
            }
        },
        "/api/auth/session": {
            "get": {
                "description": "data is null when the request carries no valid session.",
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Current session",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Session"}}}
            }
        },
        "/api/auth/signin/{provider}": {
            "get": {
                "tags": ["auth"],
                "summary": "Start an OAuth sign-in",
                "parameters": [
                    {"type": "string", "description": "Provider id", "name": "provider", "in": "path", "required": true},
                    {"type": "string", "description": "Where to land after sign-in", "name": "callbackUrl", "in": "query"}
                ],
                "responses": {"302": {"description": "Found"}}
            }
        },
        "/api/auth/signout": {
            "post": {
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Sign out",
                "responses": {"200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}}
            }
        },
        "/api/auth/signup": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Register with email and password",
                "parameters": [
                    {"description": "Registration", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ports.Registration"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.Session"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.Failure"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/response.Failure"}}
                }
            }
        },
        "/api/fees/quote": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Splits an amount in minor units between the platform and the developer. Amounts are returned as strings.",
                "produces": ["application/json"],
                "tags": ["fees"],
                "summary": "Quote the platform fee",
                "parameters": [
                    {"type": "integer", "description": "Amount in minor units", "name": "amount", "in": "query", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.FeeQuote"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/response.Failure"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.Failure"}}
                }
            }
        },
        "/api/users/me": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Full user record with role profiles, resolved from the session.",
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Current user",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/domain.User"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/response.Failure"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/response.Failure"}}
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Liveness probe",
                "responses": {"200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}}
            }
        },
        "/health/ready": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Readiness probe",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.readinessResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handlers.readinessResponse"}}
                }
            }
        }
    },
    "definitions": {
        "domain.FeeQuote": {
            "type": "object",
            "properties": {
                "amount": {"type": "string"},
                "developerPayout": {"type": "string"},
                "feeBps": {"type": "integer"},
                "platformFee": {"type": "string"}
            }
        },
        "domain.Profile": {
            "type": "object",
            "properties": {
                "createdAt": {"type": "string"},
                "id": {"type": "string"},
                "userId": {"type": "string"}
            }
        },
        "domain.Session": {
            "type": "object",
            "properties": {
                "expires": {"type": "string"},
                "user": {"$ref": "#/definitions/domain.SessionUser"}
            }
        },
        "domain.SessionUser": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "id": {"type": "string"},
                "image": {"type": "string"},
                "name": {"type": "string"},
                "role": {"type": "string", "enum": ["ADMIN", "DEVELOPER", "CLIENT"]}
            }
        },
        "domain.User": {
            "type": "object",
            "properties": {
                "client": {"$ref": "#/definitions/domain.Profile"},
                "createdAt": {"type": "string"},
                "developer": {"$ref": "#/definitions/domain.Profile"},
                "email": {"type": "string"},
                "emailVerified": {"type": "string"},
                "id": {"type": "string"},
                "image": {"type": "string"},
                "name": {"type": "string"},
                "role": {"type": "string", "enum": ["ADMIN", "DEVELOPER", "CLIENT"]},
                "updatedAt": {"type": "string"}
            }
        },
        "handler.ConfigSummary": {
            "type": "object",
            "properties": {
                "appUrl": {"type": "string"},
                "authUrl": {"type": "string"},
                "database": {"type": "string"},
                "defaultSecret": {"type": "boolean"},
                "environment": {"type": "string"},
                "platformFeeBps": {"type": "integer"},
                "providers": {"type": "array", "items": {"type": "string"}},
                "sessionMaxAge": {"type": "string"},
                "stateStore": {"type": "string"},
                "stripeConfigured": {"type": "boolean"},
                "stripePublishableKey": {"type": "string"}
            }
        },
        "handler.providerInfo": {
            "type": "object",
            "properties": {
                "callbackUrl": {"type": "string"},
                "id": {"type": "string"},
                "name": {"type": "string"},
                "signinUrl": {"type": "string"},
                "type": {"type": "string"}
            }
        },
        "handlers.dependencyStatus": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "status": {"type": "string"}
            }
        },
        "handlers.readinessResponse": {
            "type": "object",
            "properties": {
                "dependencies": {"type": "object", "additionalProperties": {"$ref": "#/definitions/handlers.dependencyStatus"}},
                "status": {"type": "string"}
            }
        },
        "ports.Credentials": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string", "minLength": 6}
            }
        },
        "ports.Registration": {
            "type": "object",
            "required": ["email", "name", "password", "role"],
            "properties": {
                "email": {"type": "string"},
                "name": {"type": "string", "maxLength": 100},
                "password": {"type": "string", "maxLength": 72, "minLength": 6},
                "role": {"type": "string", "enum": ["CLIENT", "DEVELOPER"]}
            }
        },
        "response.Failure": {
            "type": "object",
            "properties": {
                "details": {},
                "error": {"type": "string"},
                "message": {"type": "string"},
                "success": {"type": "boolean"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Marketplace API",
	Description:      "Identity and session API of the developer marketplace.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
