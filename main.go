package main

import "github.com/kazumae/fx-forecast-backend/cmd"

func main() {
	cmd.Execute()
}
