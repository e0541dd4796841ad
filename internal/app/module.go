package app

import (
	"time"

	"go.uber.org/fx"

	"github.com/letrasvivas/bookapi/internal/app/api/server"
	"github.com/letrasvivas/bookapi/internal/app/service/book"
	"github.com/letrasvivas/bookapi/internal/app/service/report"
	"github.com/letrasvivas/bookapi/internal/app/service/subscription"
	"github.com/letrasvivas/bookapi/internal/app/service/user"
	"github.com/letrasvivas/bookapi/internal/platform/db"
	"github.com/letrasvivas/bookapi/internal/store"
	"github.com/letrasvivas/bookapi/pkg/config"
	"github.com/letrasvivas/bookapi/pkg/logger"
)

const (
	DefaultStartTimeout = 15 * time.Second
	DefaultStopTimeout  = 10 * time.Second
)

var Module = fx.Options(
	logger.Module,
	config.Module,
	db.Module,
	store.Module,
	subscription.Module,
	report.Module,
	user.Module,
	book.Module,
	server.Module,
)
