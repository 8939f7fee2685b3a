// Command jobs inspects and triggers scheduled maintenance jobs.
//
//	go run ./cmd/jobs                 list recent runs
//	go run ./cmd/jobs -run reconcile_project_totals
package main

import (
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/sahilchouksey/educonnect-api/config"
	"github.com/sahilchouksey/educonnect-api/database"
	"github.com/sahilchouksey/educonnect-api/model"
	"github.com/sahilchouksey/educonnect-api/services/cron"
	"github.com/sahilchouksey/educonnect-api/utils/logger"
)

func main() {
	run := flag.String("run", "", "job to execute now ("+cron.JobReconcileProjectTotals+", "+cron.JobCleanupTokenBlacklist+")")
	limit := flag.Int("limit", 20, "number of recent runs to list")
	flag.Parse()

	if err := config.LoadENV(); err != nil {
		fmt.Fprintln(os.Stderr, "No .env file found, using environment variables")
	}

	getEnv, err := config.Get()
	if err != nil {
		fail(err)
	}
	if err := logger.Init(getEnv.LOG_LEVEL, ""); err != nil {
		fail(err)
	}
	defer logger.Sync()

	store, err := database.StartGORM()
	if err != nil {
		fail(err)
	}
	defer store.Close()

	if *run != "" {
		if err := cron.NewCronManager(store.GetDB()).RunNow(*run); err != nil {
			fail(err)
		}
	}

	var logs []model.CronJobLog
	if err := store.GetDB().Order("started_at DESC, id DESC").Limit(*limit).Find(&logs).Error; err != nil {
		fail(err)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tJOB\tSTATUS\tSTARTED\tDURATION\tMESSAGE")
	for _, l := range logs {
		msg := l.Message
		if l.ErrorMsg != "" {
			msg = l.ErrorMsg
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			l.ID, l.JobName, l.Status, l.StartedAt.Format(time.RFC3339),
			(time.Duration(l.Duration) * time.Millisecond).String(), msg)
	}
	w.Flush()
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}
