package main // Entry point for the notification worker

import (
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/villaedu/reserva/internal/logger"
	"github.com/villaedu/reserva/internal/queue"
)

// The notifier consumes reservation events from RabbitMQ and appends them
// to the log the school office reads when preparing pickup notifications.
// It runs forever, reconnecting to the broker as needed.  Only APP_ENV and
// the RABBITMQ_URL/AMQP_URL variables are consulted.
func main() {
	_ = godotenv.Load()

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "dev"
	}
	sync := logger.Init(env)
	defer sync()

	zap.S().Infow("reservation notifier starting", "env", env)
	if err := queue.StartReservationConsumer(); err != nil {
		zap.S().Fatal(err)
	}
}
