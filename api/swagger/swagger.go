package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "LabStock API",
        "description": "Laboratory supply inventory: stock lifecycle, usage requests, alerts and reports",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Login and account management"},
        {"name": "Supplies", "description": "Supply catalog and stock thresholds"},
        {"name": "Requests", "description": "Teacher usage requests with group arithmetic"},
        {"name": "Student Requests", "description": "Individual student loans"},
        {"name": "Maintenance", "description": "Equipment maintenance cycles"},
        {"name": "Damaged Items", "description": "Damage and repair tracking"},
        {"name": "Alerts", "description": "Stock threshold alerts"},
        {"name": "Movements", "description": "Stock movement log"},
        {"name": "Acquisitions", "description": "Purchase orders"},
        {"name": "Reports", "description": "CSV and PDF exports"}
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
                    "200": {"description": "Ready"}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate by email and password",
                "responses": {
                    "200": {"description": "Signed token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/api/v1/supplies": {
            "get": {
                "tags": ["Supplies"],
                "summary": "List supplies",
                "responses": {
                    "200": {"description": "Paginated supplies", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Supplies"],
                "summary": "Create a supply",
                "responses": {
                    "201": {"description": "Created"},
                    "409": {"description": "Duplicate name"}
                }
            }
        },
        "/api/v1/supplies/{id}": {
            "get": {
                "tags": ["Supplies"],
                "summary": "Fetch a supply",
                "responses": {
                    "200": {"description": "Supply"},
                    "404": {"description": "Not found"}
                }
            },
            "patch": {
                "tags": ["Supplies"],
                "summary": "Update a supply",
                "responses": {
                    "200": {"description": "Updated supply"}
                }
            },
            "delete": {
                "tags": ["Supplies"],
                "summary": "Delete a supply",
                "responses": {
                    "204": {"description": "Deleted"},
                    "409": {"description": "Referenced by requests"}
                }
            }
        },
        "/api/v1/requests": {
            "get": {
                "tags": ["Requests"],
                "summary": "List usage requests",
                "responses": {
                    "200": {"description": "Paginated requests"}
                }
            },
            "post": {
                "tags": ["Requests"],
                "summary": "Create a usage request",
                "responses": {
                    "201": {"description": "Created pending request"}
                }
            }
        },
        "/api/v1/requests/{id}/approve": {
            "post": {
                "tags": ["Requests"],
                "summary": "Approve a pending request and debit stock",
                "responses": {
                    "200": {"description": "Approved request"},
                    "400": {"description": "Insufficient stock or invalid transition"}
                }
            }
        },
        "/api/v1/requests/{id}/complete": {
            "post": {
                "tags": ["Requests"],
                "summary": "Complete an approved request and credit returns",
                "responses": {
                    "200": {"description": "Completed request"}
                }
            }
        },
        "/api/v1/student-requests": {
            "get": {
                "tags": ["Student Requests"],
                "summary": "List student requests",
                "responses": {
                    "200": {"description": "Paginated requests"}
                }
            },
            "post": {
                "tags": ["Student Requests"],
                "summary": "Create a student request",
                "responses": {
                    "201": {"description": "Created pending request"}
                }
            }
        },
        "/api/v1/maintenance": {
            "post": {
                "tags": ["Maintenance"],
                "summary": "Send units to maintenance",
                "responses": {
                    "201": {"description": "Maintenance record"},
                    "400": {"description": "Insufficient stock"}
                }
            }
        },
        "/api/v1/damaged-items": {
            "post": {
                "tags": ["Damaged Items"],
                "summary": "Register a damaged item",
                "responses": {
                    "201": {"description": "Damaged item record"}
                }
            }
        },
        "/api/v1/alerts": {
            "get": {
                "tags": ["Alerts"],
                "summary": "List stock alerts",
                "responses": {
                    "200": {"description": "Paginated alerts"}
                }
            }
        },
        "/api/v1/movements": {
            "get": {
                "tags": ["Movements"],
                "summary": "List stock movements",
                "responses": {
                    "200": {"description": "Paginated movements"}
                }
            },
            "delete": {
                "tags": ["Movements"],
                "summary": "Purge movement entries older than a cutoff",
                "responses": {
                    "200": {"description": "Removed count"}
                }
            }
        },
        "/api/v1/acquisitions": {
            "post": {
                "tags": ["Acquisitions"],
                "summary": "Create a purchase order",
                "responses": {
                    "201": {"description": "Purchase order with spelled-out total"}
                }
            }
        },
        "/api/v1/reports/inventory.csv": {
            "get": {
                "tags": ["Reports"],
                "summary": "Download the inventory report as CSV",
                "responses": {
                    "200": {"description": "CSV document"}
                }
            }
        },
        "/api/v1/reports/inventory.pdf": {
            "post": {
                "tags": ["Reports"],
                "summary": "Queue inventory PDF generation",
                "responses": {
                    "202": {"description": "Queued file name"}
                }
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
