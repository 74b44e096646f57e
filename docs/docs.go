package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "schemes": {{ marshal .Schemes }},
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "paths": {
        "/auth/signup": {
            "post": {
                "tags": ["auth"],
                "summary": "Create an account",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/ports.SignUpRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ports.AuthResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ports.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ports.ErrorResponse"}}
                }
            }
        },
        "/auth/signin": {
            "post": {
                "tags": ["auth"],
                "summary": "Sign in",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/ports.SignInRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ports.AuthResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ports.ErrorResponse"}}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["auth"],
                "summary": "Refresh tokens",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/ports.RefreshRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ports.AuthResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ports.ErrorResponse"}}
                }
            }
        },
        "/auth/signout": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["auth"],
                "summary": "Sign out",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ports.MessageResponse"}}
                }
            }
        },
        "/tasks": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["tasks"],
                "summary": "List tasks",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "description": "Column: todo, inprogress or done", "name": "status", "in": "query"},
                    {"type": "string", "description": "Title or description substring", "name": "search", "in": "query"},
                    {"type": "boolean", "description": "Only overdue tasks", "name": "overdue", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/http.TaskListResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ports.ErrorResponse"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["tasks"],
                "summary": "Create a task",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/ports.CreateTaskRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/entities.Task"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ports.ErrorResponse"}}
                }
            }
        },
        "/tasks/stats": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["tasks"],
                "summary": "Board statistics",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/board.Statistics"}}
                }
            }
        },
        "/tasks/stream": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Server-sent events; each event carries the full task list and statistics.",
                "tags": ["tasks"],
                "summary": "Live board",
                "produces": ["text/event-stream"],
                "parameters": [
                    {"type": "string", "description": "Access token when headers cannot be set", "name": "token", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ports.BoardSnapshot"}}
                }
            }
        },
        "/tasks/bulk-delete": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["tasks"],
                "summary": "Bulk delete tasks",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/ports.BulkDeleteRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ports.BulkDeleteResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ports.ErrorResponse"}}
                }
            }
        },
        "/tasks/move": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["tasks"],
                "summary": "Apply a drag and drop",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/board.DragEvent"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ports.MoveResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ports.ErrorResponse"}}
                }
            }
        },
        "/tasks/{id}": {
            "patch": {
                "security": [{"BearerAuth": []}],
                "tags": ["tasks"],
                "summary": "Update a task",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "description": "Task ID", "name": "id", "in": "path", "required": true},
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/ports.UpdateTaskRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/entities.Task"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ports.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ports.ErrorResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["tasks"],
                "summary": "Delete a task",
                "parameters": [
                    {"type": "string", "description": "Task ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ports.ErrorResponse"}}
                }
            }
        },
        "/tasks/{id}/status": {
            "put": {
                "security": [{"BearerAuth": []}],
                "tags": ["tasks"],
                "summary": "Set task status",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "description": "Task ID", "name": "id", "in": "path", "required": true},
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/ports.SetStatusRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ports.MessageResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ports.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "entities.Task": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "owner_id": {"type": "string"},
                "title": {"type": "string"},
                "description": {"type": "string"},
                "priority": {"type": "string", "enum": ["low", "medium", "high"]},
                "status": {"type": "string", "enum": ["todo", "inprogress", "done"]},
                "deadline": {"type": "string", "example": "2024-12-31"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "entities.User": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "email": {"type": "string"},
                "display_name": {"type": "string"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "board.Statistics": {
            "type": "object",
            "properties": {
                "total": {"type": "integer"},
                "todo": {"type": "integer"},
                "in_progress": {"type": "integer"},
                "done": {"type": "integer"},
                "overdue": {"type": "integer"}
            }
        },
        "board.Position": {
            "type": "object",
            "properties": {
                "column_id": {"type": "string"},
                "index": {"type": "integer"}
            }
        },
        "board.DragEvent": {
            "type": "object",
            "properties": {
                "task_id": {"type": "string"},
                "source": {"$ref": "#/definitions/board.Position"},
                "destination": {"$ref": "#/definitions/board.Position"}
            }
        },
        "http.TaskListResponse": {
            "type": "object",
            "properties": {
                "tasks": {"type": "array", "items": {"$ref": "#/definitions/entities.Task"}},
                "total": {"type": "integer"}
            }
        },
        "ports.SignUpRequest": {
            "type": "object",
            "required": ["email", "password", "confirm_password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string", "minLength": 6},
                "confirm_password": {"type": "string"},
                "display_name": {"type": "string"}
            }
        },
        "ports.SignInRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "ports.RefreshRequest": {
            "type": "object",
            "required": ["refresh_token"],
            "properties": {
                "refresh_token": {"type": "string"}
            }
        },
        "ports.AuthResponse": {
            "type": "object",
            "properties": {
                "access_token": {"type": "string"},
                "refresh_token": {"type": "string"},
                "token_type": {"type": "string"},
                "expires_in": {"type": "integer"},
                "user": {"$ref": "#/definitions/entities.User"}
            }
        },
        "ports.CreateTaskRequest": {
            "type": "object",
            "required": ["title"],
            "properties": {
                "title": {"type": "string"},
                "description": {"type": "string"},
                "priority": {"type": "string", "enum": ["low", "medium", "high"]},
                "status": {"type": "string", "enum": ["todo", "inprogress", "done"]},
                "deadline": {"type": "string", "example": "2024-12-31"}
            }
        },
        "ports.UpdateTaskRequest": {
            "type": "object",
            "properties": {
                "title": {"type": "string"},
                "description": {"type": "string"},
                "priority": {"type": "string", "enum": ["low", "medium", "high"]},
                "status": {"type": "string", "enum": ["todo", "inprogress", "done"]},
                "deadline": {"type": "string", "example": "2024-12-31"},
                "clear_deadline": {"type": "boolean"}
            }
        },
        "ports.SetStatusRequest": {
            "type": "object",
            "required": ["status"],
            "properties": {
                "status": {"type": "string", "enum": ["todo", "inprogress", "done"]}
            }
        },
        "ports.BulkDeleteRequest": {
            "type": "object",
            "properties": {
                "ids": {"type": "array", "items": {"type": "string"}}
            }
        },
        "ports.BulkDeleteResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "deleted_count": {"type": "integer"}
            }
        },
        "ports.MoveResponse": {
            "type": "object",
            "properties": {
                "moved": {"type": "boolean"}
            }
        },
        "ports.BoardSnapshot": {
            "type": "object",
            "properties": {
                "tasks": {"type": "array", "items": {"$ref": "#/definitions/entities.Task"}},
                "statistics": {"$ref": "#/definitions/board.Statistics"}
            }
        },
        "ports.MessageResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"}
            }
        },
        "ports.ErrorResponse": {
            "type": "object",
            "properties": {
                "message": {"type": "string"},
                "details": {"type": "object"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{"http"},
	Title:            "Kanban API",
	Description:      "Personal kanban board with a live task feed",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
