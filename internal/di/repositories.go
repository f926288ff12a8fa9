package di

import (
	"github.com/aristath/rfqdesk/internal/modules/allocation"
	"github.com/aristath/rfqdesk/internal/modules/quotes"
	"github.com/aristath/rfqdesk/internal/modules/rfq"
	"github.com/rs/zerolog"
)

// InitializeRepositories creates all repositories on the container's database
func InitializeRepositories(container *Container, log zerolog.Logger) {
	conn := container.DB.Conn()

	container.RFQRepo = rfq.NewRepository(conn, log)
	container.QuoteRepo = quotes.NewRepository(conn, log)
	container.AllocationRepo = allocation.NewRepository(conn, log)
}
