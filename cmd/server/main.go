package main

import "leavegate/internal/app/server"

func main() {
	server.Run()
}
