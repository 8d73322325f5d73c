package main

import "github.com/MeKo-Tech/trafficlens/internal/cmd"

func main() {
	cmd.Execute()
}
