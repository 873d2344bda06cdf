// File: cmd/server/wire.go
//go:build wireinject
// +build wireinject

package main

import (
	"context"

	"github.com/google/wire"

	"shareaplate_backend/internal/app"
	"shareaplate_backend/internal/claim"
	"shareaplate_backend/internal/coach"
	"shareaplate_backend/internal/config"
	"shareaplate_backend/internal/dispatch"
	"shareaplate_backend/internal/events"
	"shareaplate_backend/internal/firebase"
	"shareaplate_backend/internal/goal"
	"shareaplate_backend/internal/jobs"
	"shareaplate_backend/internal/listing"
	"shareaplate_backend/internal/listing/esutil"
	"shareaplate_backend/internal/llm"
	"shareaplate_backend/internal/matching"
	"shareaplate_backend/internal/middleware"
	"shareaplate_backend/internal/notification"
	"shareaplate_backend/internal/outcome"
	platformAWS "shareaplate_backend/internal/platform/aws"
	platformElasticsearch "shareaplate_backend/internal/platform/elasticsearch"
	"shareaplate_backend/internal/profile"
	"shareaplate_backend/internal/recommendation"
)

var platformSet = wire.NewSet(
	provideLogger,
	provideDatabase,
	platformElasticsearch.NewClient,
	platformAWS.NewS3Client,
	platformAWS.NewSQSClient,
	events.NewPublisher,
)

var domainSet = wire.NewSet(
	profile.NewGORMRepository,
	profile.NewService,
	profile.NewHandler,

	esutil.NewIndexer,
	provideImageStore,
	listing.NewGORMRepository,
	listing.NewService,
	listing.NewHandler,

	outcome.NewGORMRepository,
	outcome.NewService,
	outcome.NewHandler,
	wire.Bind(new(outcome.ListingLookup), new(listing.Service)),

	notification.NewGORMRepository,
	notification.NewService,
	notification.NewHandler,

	claim.NewGORMRepository,
	claim.NewService,
	claim.NewHandler,
	wire.Bind(new(claim.ListingGateway), new(listing.Service)),
	wire.Bind(new(claim.OutcomeRecorder), new(outcome.Service)),
	wire.Bind(new(claim.Notifier), new(notification.Service)),

	goal.NewGORMRepository,
	goal.NewService,
	goal.NewHandler,
	wire.Bind(new(goal.ListingCounter), new(listing.Repository)),
	wire.Bind(new(goal.ClaimStats), new(claim.Repository)),

	recommendation.NewGORMRepository,
	recommendation.NewHandler,
	wire.Bind(new(recommendation.ListingLookup), new(listing.Service)),
)

var aiSet = wire.NewSet(
	llm.NewGeminiClient,
	wire.Bind(new(llm.Gateway), new(*llm.GeminiClient)),

	provideCoachCache,
	coach.NewService,
	coach.NewHandler,
	wire.Bind(new(coach.DonorStats), new(listing.Service)),
	wire.Bind(new(coach.ClaimCounter), new(claim.Repository)),
	wire.Bind(new(coach.GoalProgress), new(goal.Service)),

	firebase.NewFirebaseService,
	dispatch.NewTelegramBot,
	dispatch.NewDispatcher,

	matching.NewService,
	matching.NewHandler,
	wire.Bind(new(matching.OutcomeBookkeeper), new(outcome.Service)),
	wire.Bind(new(matching.NotificationWriter), new(notification.Service)),
	wire.Bind(new(matching.ListingLookup), new(listing.Service)),
	wire.Bind(new(matching.ProfileDirectory), new(*profile.Service)),
)

var jobSet = wire.NewSet(
	jobs.NewOutcomeExpiryJob,
	wire.Bind(new(jobs.ExpiredListingSource), new(listing.Repository)),
	wire.Bind(new(jobs.ExpirationRecorder), new(outcome.Service)),
)

// initializeServer is the main Wire injector.
func initializeServer(ctx context.Context, cfg *config.Config) (*app.Server, func(), error) {
	wire.Build(
		platformSet,
		domainSet,
		aiSet,
		jobSet,
		wire.Struct(new(app.Handlers), "*"),
		wire.Bind(new(middleware.TokenVerifier), new(*firebase.FirebaseService)),
		wire.Bind(new(middleware.ProfileResolver), new(*profile.Service)),
		app.NewServer,
	)
	return nil, nil, nil
}

// initializeExpiryJob builds the outcome expiry job for one-off runs.
func initializeExpiryJob(ctx context.Context, cfg *config.Config) (*jobs.OutcomeExpiryJob, func(), error) {
	wire.Build(
		provideLogger,
		provideDatabase,
		platformElasticsearch.NewClient,
		platformAWS.NewS3Client,
		events.NewPublisher,
		esutil.NewIndexer,
		provideImageStore,
		listing.NewGORMRepository,
		listing.NewService,
		outcome.NewGORMRepository,
		outcome.NewService,
		wire.Bind(new(outcome.ListingLookup), new(listing.Service)),
		jobSet,
	)
	return nil, nil, nil
}
