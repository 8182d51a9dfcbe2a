package main

// General API documentation for swaggo. Generate with `swag init -g cmd/rembgd/docs.go -o docs`.
//
// @title           rembgd API
// @version         1.0
// @description     HTTP API for background removal with a fixed catalog of segmentation models.
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
