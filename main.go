package main

import "github.com/SeaWalks/Retroarch-Playlist-Script/cmd"

func main() {
	cmd.Execute()
}
