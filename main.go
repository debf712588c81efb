package main

import "github.com/thereayou/ruangchat/cmd/server"

func main() {
	s := server.NewServer()
	s.Run()
}
