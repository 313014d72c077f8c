package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "UniRoom API",
        "description": "University room scheduling: recurring timetable, per-date exceptions, conflict checks and room requests.",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "tags": [
        {
            "name": "Schedules",
            "description": "Recurring weekly timetable entries"
        },
        {
            "name": "Exceptions",
            "description": "Per-date overrides"
        },
        {
            "name": "Conflicts",
            "description": "Room and teacher double booking checks"
        },
        {
            "name": "Occurrences",
            "description": "Resolved dated occurrences"
        },
        {
            "name": "Rooms",
            "description": "Room catalog and availability"
        },
        {
            "name": "TimeSlots",
            "description": "Time slot catalog"
        },
        {
            "name": "RoomRequests",
            "description": "Teacher change requests and review"
        }
    ],
    "paths": {
        "/time-slots": {
            "get": {
                "tags": [
                    "TimeSlots"
                ],
                "summary": "List time slots",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/time-slots/{id}": {
            "get": {
                "tags": [
                    "TimeSlots"
                ],
                "summary": "Get time slot",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "in": "path",
                        "name": "id",
                        "type": "string",
                        "required": true,
                        "description": "Time slot ID"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/rooms": {
            "get": {
                "tags": [
                    "Rooms"
                ],
                "summary": "List rooms",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "in": "query",
                        "name": "roomType",
                        "type": "string",
                        "required": false
                    },
                    {
                        "in": "query",
                        "name": "building",
                        "type": "string",
                        "required": false
                    },
                    {
                        "in": "query",
                        "name": "status",
                        "type": "string",
                        "required": false
                    },
                    {
                        "in": "query",
                        "name": "departmentId",
                        "type": "string",
                        "required": false
                    },
                    {
                        "in": "query",
                        "name": "minCapacity",
                        "type": "integer",
                        "required": false
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/rooms/available": {
            "get": {
                "tags": [
                    "Rooms"
                ],
                "summary": "Rooms free on a date and slot",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "in": "query",
                        "name": "date",
                        "type": "string",
                        "required": true,
                        "description": "YYYY-MM-DD"
                    },
                    {
                        "in": "query",
                        "name": "timeSlotId",
                        "type": "string",
                        "required": true
                    },
                    {
                        "in": "query",
                        "name": "minCapacity",
                        "type": "integer",
                        "required": false
                    },
                    {
                        "in": "query",
                        "name": "classId",
                        "type": "string",
                        "required": false
                    },
                    {
                        "in": "query",
                        "name": "classTypeId",
                        "type": "string",
                        "required": false
                    },
                    {
                        "in": "query",
                        "name": "roomType",
                        "type": "string",
                        "required": false
                    },
                    {
                        "in": "query",
                        "name": "building",
                        "type": "string",
                        "required": false
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/rooms/{id}": {
            "get": {
                "tags": [
                    "Rooms"
                ],
                "summary": "Get room",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "in": "path",
                        "name": "id",
                        "type": "string",
                        "required": true,
                        "description": "Room ID"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/schedules": {
            "get": {
                "tags": [
                    "Schedules"
                ],
                "summary": "List recurring schedules",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "in": "query",
                        "name": "classId",
                        "type": "string",
                        "required": false
                    },
                    {
                        "in": "query",
                        "name": "teacherId",
                        "type": "string",
                        "required": false
                    },
                    {
                        "in": "query",
                        "name": "roomId",
                        "type": "string",
                        "required": false
                    },
                    {
                        "in": "query",
                        "name": "departmentId",
                        "type": "string",
                        "required": false
                    },
                    {
                        "in": "query",
                        "name": "timeSlotId",
                        "type": "string",
                        "required": false
                    },
                    {
                        "in": "query",
                        "name": "dayOfWeek",
                        "type": "integer",
                        "required": false,
                        "description": "1 (Sunday) to 7 (Saturday)"
                    },
                    {
                        "in": "query",
                        "name": "status",
                        "type": "string",
                        "required": false
                    },
                    {
                        "in": "query",
                        "name": "page",
                        "type": "integer",
                        "required": false
                    },
                    {
                        "in": "query",
                        "name": "limit",
                        "type": "integer",
                        "required": false
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            },
            "post": {
                "tags": [
                    "Schedules"
                ],
                "summary": "Create recurring schedule",
                "produces": [
                    "application/json"
                ],
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "in": "body",
                        "name": "payload",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/CreateScheduleRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Validation error",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Conflict",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/schedules/{id}": {
            "get": {
                "tags": [
                    "Schedules"
                ],
                "summary": "Get recurring schedule",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "in": "path",
                        "name": "id",
                        "type": "string",
                        "required": true,
                        "description": "Schedule ID"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/schedules/{id}/cancel": {
            "post": {
                "tags": [
                    "Schedules"
                ],
                "summary": "Cancel recurring schedule",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "in": "path",
                        "name": "id",
                        "type": "string",
                        "required": true,
                        "description": "Schedule ID"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Conflict or invalid state",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/schedules/{id}/exceptions": {
            "get": {
                "tags": [
                    "Exceptions"
                ],
                "summary": "List exceptions of a schedule",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "in": "path",
                        "name": "id",
                        "type": "string",
                        "required": true,
                        "description": "Schedule ID"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            },
            "post": {
                "tags": [
                    "Exceptions"
                ],
                "summary": "Create schedule exception",
                "produces": [
                    "application/json"
                ],
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "in": "path",
                        "name": "id",
                        "type": "string",
                        "required": true,
                        "description": "Schedule ID"
                    },
                    {
                        "in": "body",
                        "name": "payload",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/CreateExceptionRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Validation error",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Conflict",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/exceptions/{id}": {
            "delete": {
                "tags": [
                    "Exceptions"
                ],
                "summary": "Delete schedule exception",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "in": "path",
                        "name": "id",
                        "type": "string",
                        "required": true,
                        "description": "Exception ID"
                    }
                ],
                "responses": {
                    "204": {
                        "description": "No Content"
                    },
                    "409": {
                        "description": "Restored occurrence conflicts",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/schedules/{id}/occurrences/{date}": {
            "get": {
                "tags": [
                    "Occurrences"
                ],
                "summary": "Resolve one occurrence",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "in": "path",
                        "name": "id",
                        "type": "string",
                        "required": true,
                        "description": "Schedule ID"
                    },
                    {
                        "in": "path",
                        "name": "date",
                        "type": "string",
                        "required": true,
                        "description": "YYYY-MM-DD"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/conflicts/room": {
            "post": {
                "tags": [
                    "Conflicts"
                ],
                "summary": "Check room conflicts",
                "produces": [
                    "application/json"
                ],
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "in": "body",
                        "name": "payload",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/ConflictCheckRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/conflicts/teacher": {
            "post": {
                "tags": [
                    "Conflicts"
                ],
                "summary": "Check teacher conflicts",
                "produces": [
                    "application/json"
                ],
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "in": "body",
                        "name": "payload",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/ConflictCheckRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/occurrences/weekly": {
            "get": {
                "tags": [
                    "Occurrences"
                ],
                "summary": "Weekly timetable",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "in": "query",
                        "name": "weekStart",
                        "type": "string",
                        "required": true,
                        "description": "YYYY-MM-DD"
                    },
                    {
                        "in": "query",
                        "name": "departmentId",
                        "type": "string",
                        "required": false
                    },
                    {
                        "in": "query",
                        "name": "classId",
                        "type": "string",
                        "required": false
                    },
                    {
                        "in": "query",
                        "name": "teacherId",
                        "type": "string",
                        "required": false
                    },
                    {
                        "in": "query",
                        "name": "roomId",
                        "type": "string",
                        "required": false
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/occurrences/weekly/export": {
            "get": {
                "tags": [
                    "Occurrences"
                ],
                "summary": "Export weekly timetable",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "in": "query",
                        "name": "weekStart",
                        "type": "string",
                        "required": true,
                        "description": "YYYY-MM-DD"
                    },
                    {
                        "in": "query",
                        "name": "format",
                        "type": "string",
                        "required": false,
                        "description": "csv, pdf or xlsx"
                    },
                    {
                        "in": "query",
                        "name": "departmentId",
                        "type": "string",
                        "required": false
                    },
                    {
                        "in": "query",
                        "name": "classId",
                        "type": "string",
                        "required": false
                    },
                    {
                        "in": "query",
                        "name": "teacherId",
                        "type": "string",
                        "required": false
                    },
                    {
                        "in": "query",
                        "name": "roomId",
                        "type": "string",
                        "required": false
                    }
                ],
                "responses": {
                    "200": {
                        "description": "File",
                        "schema": {
                            "type": "file"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/room-requests": {
            "get": {
                "tags": [
                    "RoomRequests"
                ],
                "summary": "List room requests",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "in": "query",
                        "name": "status",
                        "type": "string",
                        "required": false
                    },
                    {
                        "in": "query",
                        "name": "requestType",
                        "type": "string",
                        "required": false
                    },
                    {
                        "in": "query",
                        "name": "classScheduleId",
                        "type": "string",
                        "required": false
                    },
                    {
                        "in": "query",
                        "name": "page",
                        "type": "integer",
                        "required": false
                    },
                    {
                        "in": "query",
                        "name": "limit",
                        "type": "integer",
                        "required": false
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            },
            "post": {
                "tags": [
                    "RoomRequests"
                ],
                "summary": "Submit room or schedule change request",
                "produces": [
                    "application/json"
                ],
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "in": "body",
                        "name": "payload",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/SubmitRoomRequest"
                        }
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "400": {
                        "description": "Validation error",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Conflict",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/room-requests/{id}": {
            "get": {
                "tags": [
                    "RoomRequests"
                ],
                "summary": "Get room request",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "in": "path",
                        "name": "id",
                        "type": "string",
                        "required": true,
                        "description": "Request ID"
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/room-requests/{id}/approve": {
            "post": {
                "tags": [
                    "RoomRequests"
                ],
                "summary": "Approve room request",
                "produces": [
                    "application/json"
                ],
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "in": "path",
                        "name": "id",
                        "type": "string",
                        "required": true,
                        "description": "Request ID"
                    },
                    {
                        "in": "body",
                        "name": "payload",
                        "required": false,
                        "schema": {
                            "$ref": "#/definitions/ReviewRoomRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Conflict or invalid state",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/room-requests/{id}/reject": {
            "post": {
                "tags": [
                    "RoomRequests"
                ],
                "summary": "Reject room request",
                "produces": [
                    "application/json"
                ],
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "in": "path",
                        "name": "id",
                        "type": "string",
                        "required": true,
                        "description": "Request ID"
                    },
                    {
                        "in": "body",
                        "name": "payload",
                        "required": false,
                        "schema": {
                            "$ref": "#/definitions/ReviewRoomRequest"
                        }
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    },
                    "409": {
                        "description": "Conflict or invalid state",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        },
        "/metrics/snapshot": {
            "get": {
                "tags": [
                    "Observability"
                ],
                "summary": "Operational metrics snapshot",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/ResponseEnvelope"
                        }
                    }
                },
                "security": [
                    {
                        "BearerAuth": []
                    }
                ]
            }
        }
    },
    "definitions": {
        "CreateScheduleRequest": {
            "type": "object",
            "properties": {
                "classId": {
                    "type": "string"
                },
                "classTypeId": {
                    "type": "string"
                },
                "groupNumber": {
                    "type": "integer"
                },
                "teacherId": {
                    "type": "string"
                },
                "roomId": {
                    "type": "string"
                },
                "dayOfWeek": {
                    "type": "integer"
                },
                "timeSlotId": {
                    "type": "string"
                },
                "startDate": {
                    "type": "string"
                },
                "endDate": {
                    "type": "string"
                }
            },
            "required": [
                "classId",
                "teacherId",
                "dayOfWeek",
                "timeSlotId",
                "startDate",
                "endDate"
            ]
        },
        "CreateExceptionRequest": {
            "type": "object",
            "properties": {
                "exceptionDate": {
                    "type": "string"
                },
                "exceptionType": {
                    "type": "string"
                },
                "newDate": {
                    "type": "string"
                },
                "newTimeSlotId": {
                    "type": "string"
                },
                "newRoomId": {
                    "type": "string"
                },
                "substituteTeacherId": {
                    "type": "string"
                },
                "reason": {
                    "type": "string"
                },
                "note": {
                    "type": "string"
                }
            },
            "required": [
                "exceptionDate",
                "exceptionType",
                "reason"
            ]
        },
        "ConflictCheckRequest": {
            "type": "object",
            "properties": {
                "roomId": {
                    "type": "string"
                },
                "teacherId": {
                    "type": "string"
                },
                "dayOfWeek": {
                    "type": "integer"
                },
                "timeSlotId": {
                    "type": "string"
                },
                "startDate": {
                    "type": "string"
                },
                "endDate": {
                    "type": "string"
                },
                "excludeScheduleId": {
                    "type": "string"
                }
            },
            "required": [
                "dayOfWeek",
                "timeSlotId",
                "startDate",
                "endDate"
            ]
        },
        "SubmitRoomRequest": {
            "type": "object",
            "properties": {
                "requestType": {
                    "type": "string"
                },
                "classScheduleId": {
                    "type": "string"
                },
                "requestDate": {
                    "type": "string"
                },
                "timeSlotId": {
                    "type": "string"
                },
                "reason": {
                    "type": "string"
                },
                "permanent": {
                    "type": "boolean"
                },
                "movedToDate": {
                    "type": "string"
                },
                "movedToTimeSlotId": {
                    "type": "string"
                },
                "movedToDayOfWeek": {
                    "type": "integer"
                },
                "targetRoomId": {
                    "type": "string"
                },
                "exceptionType": {
                    "type": "string"
                },
                "substituteTeacherId": {
                    "type": "string"
                }
            },
            "required": [
                "requestType",
                "requestDate",
                "reason"
            ]
        },
        "ReviewRoomRequest": {
            "type": "object",
            "properties": {
                "note": {
                    "type": "string"
                }
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {
                    "type": "integer"
                },
                "page_size": {
                    "type": "integer"
                },
                "total_count": {
                    "type": "integer"
                }
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {
                    "type": "string"
                },
                "message": {
                    "type": "string"
                },
                "status": {
                    "type": "integer"
                },
                "details": {
                    "type": "object"
                }
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {
                    "type": "object"
                },
                "error": {
                    "$ref": "#/definitions/APIError"
                },
                "pagination": {
                    "$ref": "#/definitions/Pagination"
                },
                "meta": {
                    "type": "object"
                }
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
