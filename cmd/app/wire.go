//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/yanqian/doctor-faq/internal/bootstrap"
	"github.com/yanqian/doctor-faq/internal/domain/auth"
	"github.com/yanqian/doctor-faq/internal/domain/faq"
	"github.com/yanqian/doctor-faq/internal/infra/config"
	httpiface "github.com/yanqian/doctor-faq/internal/interface/http"
	"github.com/yanqian/doctor-faq/pkg/logger"
	"github.com/yanqian/doctor-faq/pkg/metrics"
)

func initializeApp() (*bootstrap.App, func(), error) {
	wire.Build(
		config.Load,
		logger.New,
		metrics.NewFAQ,
		provideFAQConfig,
		provideAuthConfig,
		provideStorage,
		provideQuestionRepository,
		provideDoctorRepository,
		provideUserRepository,
		provideNotifier,
		faq.NewService,
		auth.NewService,
		httpiface.NewFAQHandler,
		httpiface.NewRouter,
		bootstrap.NewApp,
	)
	return nil, nil, nil
}
