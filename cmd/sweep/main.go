// Command sweep runs the event lifecycle sweep once, for cron style
// deployments.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/joho/godotenv/autoload" // Autoload .env file.

	"github.com/vietanh2810/attendance-api/cmd/app"
)

func main() {
	enqueue := flag.Bool("enqueue", false, "publish a sweep request to rabbitmq instead of sweeping in process")
	requestedBy := flag.String("requested-by", "cron", "recorded on enqueued sweep requests")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Sweep(ctx, *enqueue, *requestedBy); err != nil {
		panic(err)
	}
}
