// Package docs holds the OpenAPI description served under /swagger.
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
    "definitions": {
        "chart.Datum": {
            "properties": {
                "average": {
                    "type": "number"
                },
                "candle": {
                    "$ref": "#/definitions/series.Candle"
                },
                "index": {
                    "type": "integer"
                },
                "timestamp": {
                    "type": "integer"
                },
                "value": {
                    "type": "number"
                }
            },
            "type": "object"
        },
        "domain.PriceSnapshot": {
            "properties": {
                "change_24h_pct": {
                    "type": "number"
                },
                "last_updated_unix": {
                    "type": "integer"
                },
                "price_usd": {
                    "type": "number"
                },
                "symbol": {
                    "type": "string"
                },
                "volume_24h": {
                    "type": "number"
                }
            },
            "type": "object"
        },
        "series.Candle": {
            "properties": {
                "close": {
                    "type": "number"
                },
                "high": {
                    "type": "number"
                },
                "low": {
                    "type": "number"
                },
                "open": {
                    "type": "number"
                },
                "timestamp": {
                    "type": "integer"
                },
                "volume": {
                    "type": "number"
                }
            },
            "type": "object"
        },
        "service.ChartView": {
            "properties": {
                "candles": {
                    "additionalProperties": true,
                    "type": "object"
                },
                "config": {
                    "additionalProperties": true,
                    "type": "object"
                },
                "empty": {
                    "type": "boolean"
                },
                "interval": {
                    "type": "string"
                },
                "kind": {
                    "type": "string"
                },
                "length": {
                    "type": "number"
                },
                "line": {
                    "additionalProperties": true,
                    "type": "object"
                },
                "symbol": {
                    "type": "string"
                }
            },
            "type": "object"
        },
        "service.TouchResult": {
            "properties": {
                "datum": {
                    "$ref": "#/definitions/chart.Datum"
                },
                "hit": {
                    "type": "boolean"
                },
                "index": {
                    "type": "integer"
                },
                "x": {
                    "type": "number"
                }
            },
            "type": "object"
        }
    },
    "paths": {
        "/api/candles/{symbol}": {
            "get": {
                "parameters": [
                    {
                        "description": "Asset symbol (e.g., BTC, ETH)",
                        "in": "path",
                        "name": "symbol",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "default": "1h",
                        "description": "Candle interval (5m, 15m, 1h, 4h, 1d)",
                        "in": "query",
                        "name": "interval",
                        "type": "string"
                    },
                    {
                        "description": "Number of candles (default 200, max 1000)",
                        "in": "query",
                        "name": "limit",
                        "type": "integer"
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "additionalProperties": true,
                            "type": "object"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "additionalProperties": true,
                            "type": "object"
                        }
                    }
                },
                "summary": "Get stored OHLCV candles",
                "tags": [
                    "prices"
                ]
            }
        },
        "/api/charts/{symbol}": {
            "get": {
                "description": "Returns points, paths, candle shapes and overlays ready to draw",
                "parameters": [
                    {
                        "description": "Asset symbol (e.g., BTC, ETH)",
                        "in": "path",
                        "name": "symbol",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "default": "line",
                        "description": "Chart kind (line, candle)",
                        "in": "query",
                        "name": "kind",
                        "type": "string"
                    },
                    {
                        "default": "1h",
                        "description": "Candle interval (5m, 15m, 1h, 4h, 1d)",
                        "in": "query",
                        "name": "interval",
                        "type": "string"
                    },
                    {
                        "description": "Candles to load (default 200, max 1000)",
                        "in": "query",
                        "name": "limit",
                        "type": "integer"
                    },
                    {
                        "description": "Viewport width in pixels",
                        "in": "query",
                        "name": "width",
                        "type": "number"
                    },
                    {
                        "description": "Viewport height in pixels",
                        "in": "query",
                        "name": "height",
                        "type": "number"
                    },
                    {
                        "description": "Maximum points after downsampling",
                        "in": "query",
                        "name": "points",
                        "type": "integer"
                    },
                    {
                        "description": "Comma separated overlays (ema, bollinger)",
                        "in": "query",
                        "name": "overlays",
                        "type": "string"
                    },
                    {
                        "description": "Emit the stroke reveal animation",
                        "in": "query",
                        "name": "animate",
                        "type": "boolean"
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/service.ChartView"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "additionalProperties": true,
                            "type": "object"
                        }
                    }
                },
                "summary": "Get chart geometry",
                "tags": [
                    "charts"
                ]
            }
        },
        "/api/charts/{symbol}/svg": {
            "get": {
                "parameters": [
                    {
                        "description": "Asset symbol (e.g., BTC, ETH)",
                        "in": "path",
                        "name": "symbol",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "default": "line",
                        "description": "Chart kind (line, candle)",
                        "in": "query",
                        "name": "kind",
                        "type": "string"
                    },
                    {
                        "default": "1h",
                        "description": "Candle interval (5m, 15m, 1h, 4h, 1d)",
                        "in": "query",
                        "name": "interval",
                        "type": "string"
                    },
                    {
                        "description": "Candles to load (default 200, max 1000)",
                        "in": "query",
                        "name": "limit",
                        "type": "integer"
                    },
                    {
                        "description": "Viewport width in pixels",
                        "in": "query",
                        "name": "width",
                        "type": "number"
                    },
                    {
                        "description": "Viewport height in pixels",
                        "in": "query",
                        "name": "height",
                        "type": "number"
                    },
                    {
                        "description": "Maximum points after downsampling",
                        "in": "query",
                        "name": "points",
                        "type": "integer"
                    },
                    {
                        "description": "Comma separated overlays (ema, bollinger)",
                        "in": "query",
                        "name": "overlays",
                        "type": "string"
                    },
                    {
                        "description": "Emit the stroke reveal animation",
                        "in": "query",
                        "name": "animate",
                        "type": "boolean"
                    }
                ],
                "produces": [
                    "image/svg+xml"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "string"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "additionalProperties": true,
                            "type": "object"
                        }
                    }
                },
                "summary": "Render chart as SVG",
                "tags": [
                    "charts"
                ]
            }
        },
        "/api/charts/{symbol}/touch": {
            "get": {
                "description": "Maps a pixel x on the chart to the sample or candle under it",
                "parameters": [
                    {
                        "description": "Asset symbol (e.g., BTC, ETH)",
                        "in": "path",
                        "name": "symbol",
                        "required": true,
                        "type": "string"
                    },
                    {
                        "default": "line",
                        "description": "Chart kind (line, candle)",
                        "in": "query",
                        "name": "kind",
                        "type": "string"
                    },
                    {
                        "default": "1h",
                        "description": "Candle interval (5m, 15m, 1h, 4h, 1d)",
                        "in": "query",
                        "name": "interval",
                        "type": "string"
                    },
                    {
                        "description": "Candles to load (default 200, max 1000)",
                        "in": "query",
                        "name": "limit",
                        "type": "integer"
                    },
                    {
                        "description": "Viewport width in pixels",
                        "in": "query",
                        "name": "width",
                        "type": "number"
                    },
                    {
                        "description": "Viewport height in pixels",
                        "in": "query",
                        "name": "height",
                        "type": "number"
                    },
                    {
                        "description": "Maximum points after downsampling",
                        "in": "query",
                        "name": "points",
                        "type": "integer"
                    },
                    {
                        "description": "Comma separated overlays (ema, bollinger)",
                        "in": "query",
                        "name": "overlays",
                        "type": "string"
                    },
                    {
                        "description": "Emit the stroke reveal animation",
                        "in": "query",
                        "name": "animate",
                        "type": "boolean"
                    },
                    {
                        "description": "Pointer x in pixels",
                        "in": "query",
                        "name": "x",
                        "required": true,
                        "type": "number"
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/service.TouchResult"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "additionalProperties": true,
                            "type": "object"
                        }
                    }
                },
                "summary": "Resolve a pointer position",
                "tags": [
                    "charts"
                ]
            }
        },
        "/api/prices": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "additionalProperties": true,
                            "type": "object"
                        }
                    },
                    "502": {
                        "description": "Bad Gateway",
                        "schema": {
                            "additionalProperties": {
                                "type": "string"
                            },
                            "type": "object"
                        }
                    }
                },
                "summary": "Get current prices for all supported assets",
                "tags": [
                    "prices"
                ]
            }
        },
        "/api/prices/{symbol}": {
            "get": {
                "parameters": [
                    {
                        "description": "Asset symbol (e.g., BTC, ETH)",
                        "in": "path",
                        "name": "symbol",
                        "required": true,
                        "type": "string"
                    }
                ],
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/domain.PriceSnapshot"
                        }
                    },
                    "400": {
                        "description": "Bad Request",
                        "schema": {
                            "additionalProperties": true,
                            "type": "object"
                        }
                    },
                    "502": {
                        "description": "Bad Gateway",
                        "schema": {
                            "additionalProperties": {
                                "type": "string"
                            },
                            "type": "object"
                        }
                    }
                },
                "summary": "Get current price for a crypto asset",
                "tags": [
                    "prices"
                ]
            }
        },
        "/health": {
            "get": {
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "additionalProperties": {
                                "type": "string"
                            },
                            "type": "object"
                        }
                    }
                },
                "summary": "Health check",
                "tags": [
                    "health"
                ]
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "cryptoview API",
	Description:      "Crypto prices, candles and chart geometry with SVG rendering.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
