package main

import "taskdeck/internal/app"

// @title        Taskdeck API
// @version      1.0
// @description  Personal task tracker with a status transition engine.
// @BasePath     /
func main() {
	app.Run()
}
