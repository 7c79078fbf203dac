package main

import (
	"fmt"
	"os"
	"time"

	"github.com/mindmirror/mindmirror/internal/client"
	"github.com/muesli/coral"
)

var (
	version  = "dev"
	revision = "none"
	date     = "unknown"

	title  string
	tags   string
	length time.Duration
)

func main() {
	c := &coral.Command{
		Use:     "mmc",
		Short:   "MindMirror video-journal client",
		Version: fmt.Sprintf("%s - build %.7s @ %s", version, revision, date),
		Args:    coral.NoArgs,
	}
	recordCmd.Flags().StringVarP(&title, "title", "t", "", "Journal entry title")
	recordCmd.Flags().StringVar(&tags, "tags", "", "Comma separated tags")
	recordCmd.Flags().DurationVar(&length, "for", 3*time.Second, "Replay duration")
	c.AddCommand(recordCmd)
	c.AddCommand(listCmd)
	c.AddCommand(rmCmd)

	if err := c.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

var (
	recordCmd = &coral.Command{
		Use:   "record FILENAME",
		Short: "Record a media file into the journal",
		Args:  coral.ExactArgs(1),
		RunE: func(_ *coral.Command, args []string) error {
			return client.Record(args[0], title, tags, length)
		},
	}

	listCmd = &coral.Command{
		Use:   "list",
		Short: "List your journal entries",
		Args:  coral.NoArgs,
		RunE: func(_ *coral.Command, _ []string) error {
			return client.List()
		},
	}

	rmCmd = &coral.Command{
		Use:   "rm ID",
		Short: "Delete a journal entry and its local video",
		Args:  coral.ExactArgs(1),
		RunE: func(_ *coral.Command, args []string) error {
			return client.Remove(args[0])
		},
	}
)
