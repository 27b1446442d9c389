// Package docs contiene el documento OpenAPI servido en /swagger.
// Se regenera con: swag init -g cmd/api/main.go -o docs
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
        "/cats": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "cats"
                ],
                "summary": "Listar gatos",
                "description": "Devuelve todos los gatos con el dueño expandido (id, user_name, email).",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/cats.catResponse"
                            }
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "$ref": "#/definitions/respond.ErrorBody"
                        }
                    }
                }
            },
            "post": {
                "consumes": [
                    "multipart/form-data"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "cats"
                ],
                "summary": "Crear gato",
                "description": "Form multipart con la foto en ` + "`" + `cat` + "`" + `. El usuario autenticado queda como dueño. ` + "`" + `coordinates` + "`" + ` es opcional (` + "`" + `longitud,latitud` + "`" + `); si falta se usa la ubicación por defecto.",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Solo en modo dev, ID de usuario para depuración",
                        "name": "X-Debug-User-ID",
                        "in": "header"
                    },
                    {
                        "type": "string",
                        "description": "Bearer token en producción",
                        "name": "Authorization",
                        "in": "header"
                    },
                    {
                        "type": "file",
                        "description": "Foto del gato",
                        "name": "cat",
                        "in": "formData",
                        "required": true
                    },
                    {
                        "type": "string",
                        "description": "Nombre",
                        "name": "cat_name",
                        "in": "formData",
                        "required": true
                    },
                    {
                        "type": "number",
                        "description": "Peso",
                        "name": "weight",
                        "in": "formData",
                        "required": true
                    },
                    {
                        "type": "string",
                        "description": "Fecha de nacimiento YYYY-MM-DD",
                        "name": "birthdate",
                        "in": "formData",
                        "required": true
                    },
                    {
                        "type": "string",
                        "description": "longitud,latitud",
                        "name": "coordinates",
                        "in": "formData"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/cats.catMessageResponse"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/respond.ErrorBody"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/respond.ErrorBody"
                        }
                    }
                }
            }
        },
        "/cats/admin/{catID}": {
            "put": {
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "cats"
                ],
                "summary": "Modificar gato (admin)",
                "description": "Solo admin. Puede cambiar cualquier campo, incluido owner.",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Solo en modo dev, ID de usuario para depuración",
                        "name": "X-Debug-User-ID",
                        "in": "header"
                    },
                    {
                        "type": "string",
                        "description": "Solo en modo dev, rol (admin|user)",
                        "name": "X-Debug-User-Role",
                        "in": "header"
                    },
                    {
                        "type": "string",
                        "description": "Bearer token en producción",
                        "name": "Authorization",
                        "in": "header"
                    },
                    {
                        "type": "string",
                        "description": "ID del gato",
                        "name": "catID",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "Campos a modificar",
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/cats.updateCatRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/cats.catMessageResponse"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/respond.ErrorBody"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/respond.ErrorBody"
                        }
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {
                            "$ref": "#/definitions/respond.ErrorBody"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/respond.ErrorBody"
                        }
                    }
                }
            },
            "delete": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "cats"
                ],
                "summary": "Borrar gato (admin)",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Solo en modo dev, ID de usuario para depuración",
                        "name": "X-Debug-User-ID",
                        "in": "header"
                    },
                    {
                        "type": "string",
                        "description": "Solo en modo dev, rol (admin|user)",
                        "name": "X-Debug-User-Role",
                        "in": "header"
                    },
                    {
                        "type": "string",
                        "description": "Bearer token en producción",
                        "name": "Authorization",
                        "in": "header"
                    },
                    {
                        "type": "string",
                        "description": "ID del gato",
                        "name": "catID",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/cats.catMessageResponse"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/respond.ErrorBody"
                        }
                    },
                    "403": {
                        "description": "Forbidden",
                        "schema": {
                            "$ref": "#/definitions/respond.ErrorBody"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/respond.ErrorBody"
                        }
                    }
                }
            }
        },
        "/cats/area": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "cats"
                ],
                "summary": "Gatos dentro de un área",
                "description": "Esquinas en formato ` + "`" + `longitud,latitud` + "`" + ` (primero longitud, al revés que Google Maps). Un área invertida devuelve lista vacía.",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Esquina superior derecha, p.ej. 24.95,60.20",
                        "name": "topRight",
                        "in": "query",
                        "required": true
                    },
                    {
                        "type": "string",
                        "description": "Esquina inferior izquierda, p.ej. 24.90,60.15",
                        "name": "bottomLeft",
                        "in": "query",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/cats.catResponse"
                            }
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/respond.ErrorBody"
                        }
                    }
                }
            }
        },
        "/cats/user": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "cats"
                ],
                "summary": "Listar mis gatos",
                "description": "Gatos del usuario autenticado. Lista vacía si no tiene ninguno.",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Solo en modo dev, ID de usuario para depuración",
                        "name": "X-Debug-User-ID",
                        "in": "header"
                    },
                    {
                        "type": "string",
                        "description": "Bearer token en producción",
                        "name": "Authorization",
                        "in": "header"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/cats.catResponse"
                            }
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/respond.ErrorBody"
                        }
                    }
                }
            }
        },
        "/cats/{catID}": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "cats"
                ],
                "summary": "Obtener gato",
                "parameters": [
                    {
                        "type": "string",
                        "description": "ID del gato",
                        "name": "catID",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/cats.catResponse"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/respond.ErrorBody"
                        }
                    }
                }
            },
            "put": {
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "cats"
                ],
                "summary": "Modificar gato (dueño)",
                "description": "Solo el dueño. El campo owner se ignora. Si el gato no existe o es de otro usuario responde 404.",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Solo en modo dev, ID de usuario para depuración",
                        "name": "X-Debug-User-ID",
                        "in": "header"
                    },
                    {
                        "type": "string",
                        "description": "Bearer token en producción",
                        "name": "Authorization",
                        "in": "header"
                    },
                    {
                        "type": "string",
                        "description": "ID del gato",
                        "name": "catID",
                        "in": "path",
                        "required": true
                    },
                    {
                        "description": "Campos a modificar",
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/cats.updateCatRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/cats.catMessageResponse"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/respond.ErrorBody"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/respond.ErrorBody"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/respond.ErrorBody"
                        }
                    }
                }
            },
            "delete": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "cats"
                ],
                "summary": "Borrar gato (dueño)",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Solo en modo dev, ID de usuario para depuración",
                        "name": "X-Debug-User-ID",
                        "in": "header"
                    },
                    {
                        "type": "string",
                        "description": "Bearer token en producción",
                        "name": "Authorization",
                        "in": "header"
                    },
                    {
                        "type": "string",
                        "description": "ID del gato",
                        "name": "catID",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/cats.catMessageResponse"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/respond.ErrorBody"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/respond.ErrorBody"
                        }
                    }
                }
            }
        },
        "/users": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "users"
                ],
                "summary": "Listar usuarios",
                "description": "Devuelve todos los usuarios sin password ni role.",
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/users.userResponse"
                            }
                        }
                    },
                    "500": {
                        "description": "Internal Server Error",
                        "schema": {
                            "$ref": "#/definitions/respond.ErrorBody"
                        }
                    }
                }
            },
            "post": {
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "users"
                ],
                "summary": "Registrar usuario",
                "description": "Crea un usuario. El rol siempre queda en ` + "`" + `user` + "`" + ` aunque el body mande otro.",
                "parameters": [
                    {
                        "description": "Datos del usuario",
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/users.registerUserRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/users.userMessageResponse"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/respond.ErrorBody"
                        }
                    }
                }
            },
            "put": {
                "consumes": [
                    "application/json"
                ],
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "users"
                ],
                "summary": "Actualizar usuario actual",
                "description": "Actualiza nombre, email o password del usuario autenticado. Campos desconocidos (p.ej. role) se rechazan.",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Solo en modo dev, ID de usuario para depuración",
                        "name": "X-Debug-User-ID",
                        "in": "header"
                    },
                    {
                        "type": "string",
                        "description": "Bearer token en producción",
                        "name": "Authorization",
                        "in": "header"
                    },
                    {
                        "description": "Campos a modificar",
                        "name": "payload",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/users.updateUserRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/users.userMessageResponse"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "$ref": "#/definitions/respond.ErrorBody"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/respond.ErrorBody"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/respond.ErrorBody"
                        }
                    }
                }
            },
            "delete": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "users"
                ],
                "summary": "Borrar usuario actual",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Solo en modo dev, ID de usuario para depuración",
                        "name": "X-Debug-User-ID",
                        "in": "header"
                    },
                    {
                        "type": "string",
                        "description": "Bearer token en producción",
                        "name": "Authorization",
                        "in": "header"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/users.userMessageResponse"
                        }
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {
                            "$ref": "#/definitions/respond.ErrorBody"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/respond.ErrorBody"
                        }
                    }
                }
            }
        },
        "/users/token": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "users"
                ],
                "summary": "Verificar sesión",
                "description": "Devuelve el usuario del token sin consultar la base. 204 si no hay usuario resuelto.",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Solo en modo dev, ID de usuario para depuración",
                        "name": "X-Debug-User-ID",
                        "in": "header"
                    },
                    {
                        "type": "string",
                        "description": "Bearer token en producción",
                        "name": "Authorization",
                        "in": "header"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/users.userResponse"
                        }
                    },
                    "204": {
                        "description": "sin sesión"
                    }
                }
            }
        },
        "/users/{userID}": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "tags": [
                    "users"
                ],
                "summary": "Obtener usuario",
                "parameters": [
                    {
                        "type": "string",
                        "description": "ID del usuario",
                        "name": "userID",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/users.userResponse"
                        }
                    },
                    "404": {
                        "description": "Not Found",
                        "schema": {
                            "$ref": "#/definitions/respond.ErrorBody"
                        }
                    }
                }
            }
        }
    },
    "definitions": {
        "cats.catMessageResponse": {
            "type": "object",
            "properties": {
                "data": {
                    "$ref": "#/definitions/cats.catResponse"
                },
                "message": {
                    "type": "string"
                }
            }
        },
        "cats.catResponse": {
            "type": "object",
            "properties": {
                "birthdate": {
                    "type": "string"
                },
                "cat_name": {
                    "type": "string"
                },
                "created_at": {
                    "type": "string"
                },
                "filename": {
                    "type": "string"
                },
                "id": {
                    "type": "string"
                },
                "location": {
                    "$ref": "#/definitions/cats.locationResponse"
                },
                "owner": {
                    "$ref": "#/definitions/cats.ownerResponse"
                },
                "updated_at": {
                    "type": "string"
                },
                "weight": {
                    "type": "number"
                }
            }
        },
        "cats.locationPayload": {
            "type": "object",
            "properties": {
                "coordinates": {
                    "type": "array",
                    "items": {
                        "type": "number"
                    }
                },
                "type": {
                    "type": "string"
                }
            }
        },
        "cats.locationResponse": {
            "type": "object",
            "properties": {
                "coordinates": {
                    "type": "array",
                    "items": {
                        "type": "number"
                    }
                },
                "type": {
                    "type": "string"
                }
            }
        },
        "cats.ownerResponse": {
            "type": "object",
            "properties": {
                "email": {
                    "type": "string"
                },
                "id": {
                    "type": "string"
                },
                "user_name": {
                    "type": "string"
                }
            }
        },
        "cats.updateCatRequest": {
            "type": "object",
            "properties": {
                "birthdate": {
                    "type": "string",
                    "description": "YYYY-MM-DD"
                },
                "cat_name": {
                    "type": "string"
                },
                "filename": {
                    "type": "string"
                },
                "location": {
                    "$ref": "#/definitions/cats.locationPayload"
                },
                "owner": {
                    "type": "string"
                },
                "weight": {
                    "type": "number"
                }
            }
        },
        "respond.ErrorBody": {
            "type": "object",
            "properties": {
                "error": {
                    "type": "string"
                },
                "message": {
                    "type": "string"
                }
            }
        },
        "users.registerUserRequest": {
            "type": "object",
            "properties": {
                "email": {
                    "type": "string"
                },
                "password": {
                    "type": "string"
                },
                "role": {
                    "type": "string"
                },
                "user_name": {
                    "type": "string"
                }
            }
        },
        "users.updateUserRequest": {
            "type": "object",
            "properties": {
                "email": {
                    "type": "string"
                },
                "password": {
                    "type": "string"
                },
                "user_name": {
                    "type": "string"
                }
            }
        },
        "users.userMessageResponse": {
            "type": "object",
            "properties": {
                "data": {
                    "$ref": "#/definitions/users.userResponse"
                },
                "message": {
                    "type": "string"
                }
            }
        },
        "users.userResponse": {
            "type": "object",
            "properties": {
                "email": {
                    "type": "string"
                },
                "id": {
                    "type": "string"
                },
                "user_name": {
                    "type": "string"
                }
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Pet Registry API",
	Description:      "Registro de gatos geolocalizados con dueños y administración.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
