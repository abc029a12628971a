package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "School Admin API",
        "description": "Teachers, subjects, students and the enrollment ledger.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": ["http"],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "security": [{"BearerAuth": []}],
    "tags": [
        {"name": "Authentication"},
        {"name": "Teachers", "description": "Teacher roster management"},
        {"name": "Subjects", "description": "Subject catalogue with slot capacity"},
        {"name": "Students", "description": "Student records"},
        {"name": "Enrollments", "description": "Enroll and unenroll transitions"},
        {"name": "Import", "description": "Bulk JSON import"},
        {"name": "Dashboard"},
        {"name": "Reports"},
        {"name": "System"},
        {"name": "Media"}
    ],
    "paths": {
        "/auth/register": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Register a staff account",
                "security": [],
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RegisterRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "ADMIN role requested without an ADMIN token"},
                    "409": {"description": "Username taken"}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "security": [],
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Current user profile",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            }
        },
        "/teachers": {
            "get": {
                "tags": ["Teachers"],
                "summary": "List teachers",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "sort", "in": "query", "type": "string", "enum": ["name", "email", "age", "created_at"]},
                    {"name": "order", "in": "query", "type": "string", "enum": ["asc", "desc"]}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Teachers"],
                "summary": "Create teacher",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/TeacherRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Email already registered"}
                }
            }
        },
        "/teachers/{id}": {
            "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
            "get": {
                "tags": ["Teachers"],
                "summary": "Get teacher with assigned subjects",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}, "404": {"description": "Not found"}}
            },
            "put": {
                "tags": ["Teachers"],
                "summary": "Update teacher",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/TeacherRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "delete": {
                "tags": ["Teachers"],
                "summary": "Delete teacher",
                "responses": {"204": {"description": "Deleted"}}
            }
        },
        "/teachers/{id}/photo": {
            "post": {
                "tags": ["Teachers"],
                "summary": "Upload teacher photo",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "photo", "in": "formData", "required": true, "type": "file"}
                ],
                "responses": {"200": {"description": "OK"}, "413": {"description": "Too large"}, "415": {"description": "Unsupported type"}}
            }
        },
        "/subjects": {
            "get": {
                "tags": ["Subjects"],
                "summary": "List subjects",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "career", "in": "query", "type": "string"},
                    {"name": "group", "in": "query", "type": "string"},
                    {"name": "teacherId", "in": "query", "type": "string"},
                    {"name": "open", "in": "query", "type": "boolean"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Subjects"],
                "summary": "Create subject",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubjectRequest"}}],
                "responses": {"201": {"description": "Created"}, "409": {"description": "Duplicate name, group and career"}}
            }
        },
        "/subjects/{id}": {
            "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
            "get": {"tags": ["Subjects"], "summary": "Get subject", "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}},
            "put": {
                "tags": ["Subjects"],
                "summary": "Update subject",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubjectRequest"}}],
                "responses": {"200": {"description": "OK"}, "409": {"description": "SLOTS_BELOW_ENROLLED or duplicate key"}}
            },
            "delete": {"tags": ["Subjects"], "summary": "Delete subject", "responses": {"204": {"description": "Deleted"}, "409": {"description": "Subject has enrolled students"}}}
        },
        "/students": {
            "get": {
                "tags": ["Students"],
                "summary": "List students",
                "parameters": [
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}}
            },
            "post": {
                "tags": ["Students"],
                "summary": "Create student",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/StudentRequest"}}],
                "responses": {"201": {"description": "Created"}, "409": {"description": "Student code exists"}}
            }
        },
        "/students/{id}": {
            "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
            "get": {"tags": ["Students"], "summary": "Get student detail", "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}},
            "put": {
                "tags": ["Students"],
                "summary": "Update student",
                "parameters": [{"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/StudentRequest"}}],
                "responses": {"200": {"description": "OK"}}
            },
            "delete": {"tags": ["Students"], "summary": "Delete student and return their slots", "responses": {"204": {"description": "Deleted"}}}
        },
        "/students/{id}/photo": {
            "post": {
                "tags": ["Students"],
                "summary": "Upload student photo",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "photo", "in": "formData", "required": true, "type": "file"}
                ],
                "responses": {"200": {"description": "OK"}, "413": {"description": "Too large"}, "415": {"description": "Unsupported type"}}
            }
        },
        "/students/{id}/enrollments": {
            "get": {
                "tags": ["Enrollments"],
                "summary": "List a student's enrollments",
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "STUDENT_NOT_FOUND"}}
            }
        },
        "/students/{id}/enrollments/{subjectId}": {
            "parameters": [
                {"name": "id", "in": "path", "required": true, "type": "string"},
                {"name": "subjectId", "in": "path", "required": true, "type": "string"}
            ],
            "post": {
                "tags": ["Enrollments"],
                "summary": "Enroll a student in a subject",
                "responses": {
                    "201": {"description": "Enrolled", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "STUDENT_NOT_FOUND or SUBJECT_NOT_FOUND"},
                    "409": {"description": "ALREADY_ENROLLED or NO_AVAILABLE_SLOTS"},
                    "422": {"description": "CREDIT_LIMIT_EXCEEDED"},
                    "503": {"description": "TRANSACTION_FAILED"}
                }
            },
            "delete": {
                "tags": ["Enrollments"],
                "summary": "Remove a student from a subject",
                "responses": {
                    "200": {"description": "Unenrolled", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "ENROLLMENT_NOT_FOUND"},
                    "503": {"description": "TRANSACTION_FAILED"}
                }
            }
        },
        "/import/{kind}": {
            "post": {
                "tags": ["Import"],
                "summary": "Bulk import a JSON array",
                "consumes": ["multipart/form-data", "application/json"],
                "parameters": [
                    {"name": "kind", "in": "path", "required": true, "type": "string", "enum": ["teachers", "subjects", "students"]},
                    {"name": "file", "in": "formData", "type": "file"}
                ],
                "responses": {"200": {"description": "Import summary"}, "400": {"description": "Not a JSON array"}}
            }
        },
        "/dashboard": {
            "get": {"tags": ["Dashboard"], "summary": "Staff dashboard", "responses": {"200": {"description": "OK"}}}
        },
        "/reports": {
            "get": {"tags": ["Reports"], "summary": "Enrollment and catalogue report", "responses": {"200": {"description": "OK"}}}
        },
        "/reports/export": {
            "get": {
                "tags": ["Reports"],
                "summary": "Download the report",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [{"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}],
                "responses": {"200": {"description": "File"}, "400": {"description": "Unsupported format"}}
            }
        },
        "/system/database": {
            "get": {"tags": ["System"], "summary": "Database status", "responses": {"200": {"description": "OK"}}}
        },
        "/media/{token}": {
            "get": {
                "tags": ["Media"],
                "summary": "Download a photo via signed token",
                "security": [],
                "parameters": [{"name": "token", "in": "path", "required": true, "type": "string"}],
                "responses": {"200": {"description": "Image"}, "403": {"description": "Expired or invalid token"}, "404": {"description": "Missing file"}}
            }
        }
    },
    "definitions": {
        "RegisterRequest": {
            "type": "object",
            "required": ["username", "password"],
            "properties": {
                "username": {"type": "string", "minLength": 4, "maxLength": 20},
                "password": {"type": "string", "minLength": 6},
                "role": {"type": "string", "enum": ["ADMIN", "STAFF"]}
            }
        },
        "LoginRequest": {
            "type": "object",
            "required": ["username", "password"],
            "properties": {
                "username": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "TeacherRequest": {
            "type": "object",
            "required": ["name", "age", "email"],
            "properties": {
                "name": {"type": "string"},
                "age": {"type": "integer", "minimum": 18, "maximum": 100},
                "email": {"type": "string", "format": "email"},
                "titles": {"type": "array", "items": {"type": "string", "enum": ["bachelor", "master", "phd", "professor"]}}
            }
        },
        "SubjectRequest": {
            "type": "object",
            "required": ["name", "group", "career", "credits", "total_slots"],
            "properties": {
                "name": {"type": "string"},
                "group": {"type": "string"},
                "career": {"type": "string"},
                "schedule": {"type": "string"},
                "credits": {"type": "integer", "minimum": 1, "maximum": 4},
                "total_slots": {"type": "integer", "minimum": 1},
                "teacher_id": {"type": "string", "format": "uuid"}
            }
        },
        "StudentRequest": {
            "type": "object",
            "required": ["student_code", "name", "email"],
            "properties": {
                "student_code": {"type": "string", "maxLength": 20},
                "name": {"type": "string"},
                "email": {"type": "string", "format": "email"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
