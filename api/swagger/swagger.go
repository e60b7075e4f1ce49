package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Presentation Scheduler API",
        "description": "Slot allocation and conflict resolution for academic presentation sessions",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Auth", "description": "Authentication"},
        {"name": "Bookings", "description": "Presentation bookings"},
        {"name": "Scheduler", "description": "Availability and slot suggestion"},
        {"name": "Reschedules", "description": "Reschedule workflow"},
        {"name": "Examiners", "description": "Examiner roster"},
        {"name": "Students", "description": "Student roster"},
        {"name": "Venues", "description": "Venue roster"},
        {"name": "Modules", "description": "Course modules"},
        {"name": "Timetable", "description": "Recurring lectures"},
        {"name": "Exports", "description": "Schedule exports"}
    ],
    "paths": {
        "/presentations": {
            "get": {
                "tags": ["Bookings"],
                "summary": "List bookings",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Bookings"],
                "summary": "Create booking",
                "responses": {
                    "201": {"description": "Created"},
                    "400": {"description": "Validation failure or slot not available"}
                }
            }
        },
        "/presentations/{id}": {
            "get": {
                "tags": ["Bookings"],
                "summary": "Get booking",
                "responses": {"200": {"description": "OK"}, "404": {"description": "Not found"}}
            },
            "put": {
                "tags": ["Bookings"],
                "summary": "Update booking",
                "responses": {"200": {"description": "OK"}, "400": {"description": "Slot not available"}}
            },
            "delete": {
                "tags": ["Bookings"],
                "summary": "Delete booking",
                "responses": {"204": {"description": "Deleted"}}
            }
        },
        "/scheduler/availability": {
            "post": {
                "tags": ["Scheduler"],
                "summary": "List free time slots for a date",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/scheduler/suggest": {
            "post": {
                "tags": ["Scheduler"],
                "summary": "Suggest a non-conflicting slot",
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "No suitable slot"}
                }
            }
        },
        "/scheduler/suggest/reschedule/{id}": {
            "get": {
                "tags": ["Scheduler"],
                "summary": "Suggest a replacement slot for a booking",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/reschedules": {
            "get": {
                "tags": ["Reschedules"],
                "summary": "List reschedule requests",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "tags": ["Reschedules"],
                "summary": "File reschedule request",
                "responses": {"201": {"description": "Created"}, "401": {"description": "Unauthorized"}}
            }
        },
        "/reschedules/{id}/decision": {
            "post": {
                "tags": ["Reschedules"],
                "summary": "Approve or reject a reschedule request",
                "responses": {"200": {"description": "Decision recorded"}}
            }
        }
    },
    "definitions": {
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
