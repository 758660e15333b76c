// pagerbot serves multi-page documents in Telegram or Discord chats.
package main

import (
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
