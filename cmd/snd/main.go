package main

import "github.com/rudransh-shrivastava/snd/internal/client/cmd"

func main() {
	cmd.Execute()
}
