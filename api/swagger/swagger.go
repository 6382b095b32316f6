package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "EduPanel Scheduling API",
        "description": "Schedule generation pipeline, conflict detection and calendar projection",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Pipeline", "description": "Draft, optimize, validate and apply stages"},
        {"name": "Schedules", "description": "Row-level schedule management"},
        {"name": "Grid", "description": "Weekly grid and monthly calendar projections"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "Degraded"}
                }
            }
        },
        "/schedules": {
            "get": {
                "tags": ["Schedules"],
                "summary": "List schedule rows",
                "parameters": [
                    {"name": "groupId", "in": "query", "type": "string"},
                    {"name": "teacherId", "in": "query", "type": "string"},
                    {"name": "classroomId", "in": "query", "type": "string"},
                    {"name": "dayOfWeek", "in": "query", "type": "integer"},
                    {"name": "recurrence", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "sort", "in": "query", "type": "string"},
                    {"name": "order", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Schedules"],
                "summary": "Create a schedule row",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateScheduleRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Schedule conflict", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Unresolvable reference", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedules/{id}": {
            "get": {
                "tags": ["Schedules"],
                "summary": "Get one schedule row",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found"}
                }
            },
            "delete": {
                "tags": ["Schedules"],
                "summary": "Delete a schedule row",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "404": {"description": "Not found"}
                }
            }
        },
        "/schedules/{id}/reschedule": {
            "patch": {
                "tags": ["Schedules"],
                "summary": "Move a schedule row to a new slot",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RescheduleRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Schedule conflict"}
                }
            }
        },
        "/schedules/grid": {
            "get": {
                "tags": ["Grid"],
                "summary": "Project the weekly grid",
                "parameters": [
                    {"name": "weekStart", "in": "query", "required": true, "type": "string", "description": "Any date inside the week (YYYY-MM-DD)"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedules/calendar": {
            "get": {
                "tags": ["Grid"],
                "summary": "Project the monthly calendar",
                "parameters": [
                    {"name": "year", "in": "query", "required": true, "type": "integer"},
                    {"name": "month", "in": "query", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedules/pipeline/draft": {
            "post": {
                "tags": ["Pipeline"],
                "summary": "Build a draft schedule",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/DraftRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Batch limit exceeded"},
                    "422": {"description": "Unresolvable reference"}
                }
            }
        },
        "/schedules/pipeline/optimize": {
            "post": {
                "tags": ["Pipeline"],
                "summary": "Optimize a draft via the reasoning service",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/OptimizeRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Reasoning service returned unusable output"}
                }
            }
        },
        "/schedules/pipeline/validate": {
            "post": {
                "tags": ["Pipeline"],
                "summary": "Validate an optimized batch against the live schedule",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ValidateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/schedules/pipeline/apply": {
            "post": {
                "tags": ["Pipeline"],
                "summary": "Persist a validated batch",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ApplyRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "412": {"description": "Batch limit exceeded"}
                }
            }
        }
    },
    "definitions": {
        "LessonOccurrence": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "tempId": {"type": "string"},
                "date": {"type": "string"},
                "dayOfWeek": {"type": "integer"},
                "startTime": {"type": "string"},
                "endTime": {"type": "string"},
                "groupId": {"type": "string"},
                "teacherId": {"type": "string"},
                "classroomId": {"type": "string"},
                "studyPlanId": {"type": "string"},
                "subjectName": {"type": "string"},
                "recurrence": {"type": "string", "enum": ["weekly", "biweekly", "once"]},
                "startDate": {"type": "string"},
                "endDate": {"type": "string"},
                "periodId": {"type": "string"},
                "anchorDate": {"type": "string"},
                "status": {"type": "string", "enum": ["upcoming", "completed", "cancelled"]}
            }
        },
        "GenerationParams": {
            "type": "object",
            "properties": {
                "groupIds": {"type": "array", "items": {"type": "string"}},
                "periodId": {"type": "string"},
                "startDate": {"type": "string"},
                "endDate": {"type": "string"},
                "constraints": {"type": "object"}
            }
        },
        "DraftRequest": {
            "type": "object",
            "properties": {
                "params": {"$ref": "#/definitions/GenerationParams"}
            }
        },
        "OptimizeRequest": {
            "type": "object",
            "properties": {
                "draft": {"type": "array", "items": {"$ref": "#/definitions/LessonOccurrence"}},
                "params": {"$ref": "#/definitions/GenerationParams"}
            }
        },
        "ValidateRequest": {
            "type": "object",
            "properties": {
                "generated": {"type": "array", "items": {"$ref": "#/definitions/LessonOccurrence"}}
            }
        },
        "ApplyRequest": {
            "type": "object",
            "properties": {
                "generated": {"type": "array", "items": {"$ref": "#/definitions/LessonOccurrence"}}
            }
        },
        "CreateScheduleRequest": {
            "type": "object",
            "properties": {
                "groupId": {"type": "string"},
                "teacherId": {"type": "string"},
                "classroomId": {"type": "string"},
                "studyPlanId": {"type": "string"},
                "subjectName": {"type": "string"},
                "recurrence": {"type": "string"},
                "dayOfWeek": {"type": "integer"},
                "date": {"type": "string"},
                "startTime": {"type": "string"},
                "endTime": {"type": "string"},
                "startDate": {"type": "string"},
                "endDate": {"type": "string"},
                "periodId": {"type": "string"},
                "anchorDate": {"type": "string"}
            }
        },
        "RescheduleRequest": {
            "type": "object",
            "properties": {
                "dayOfWeek": {"type": "integer"},
                "date": {"type": "string"},
                "startTime": {"type": "string"},
                "endTime": {"type": "string"},
                "status": {"type": "string"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_items": {"type": "integer"},
                "total_pages": {"type": "integer"}
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
