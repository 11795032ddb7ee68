package main

import "github.com/O-HAM-MA/apartner-sub000/app"

func main() {
	app.Run()
}
