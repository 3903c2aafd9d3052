// Composition root. The only place that knows about every module.
package main

import (
	"context"

	"github.com/Abraxas-365/otpauth/pkg/config"
	"github.com/Abraxas-365/otpauth/pkg/iam/analytics"
	"github.com/Abraxas-365/otpauth/pkg/iam/analytics/analyticsinfra"
	"github.com/Abraxas-365/otpauth/pkg/iam/auth"
	"github.com/Abraxas-365/otpauth/pkg/iam/authsession"
	"github.com/Abraxas-365/otpauth/pkg/iam/authsession/authsessionhttp"
	"github.com/Abraxas-365/otpauth/pkg/iam/otp"
	"github.com/Abraxas-365/otpauth/pkg/logx"
	"github.com/Abraxas-365/otpauth/pkg/notifx"
	"github.com/Abraxas-365/otpauth/pkg/notifx/notifxconsole"
	"github.com/Abraxas-365/otpauth/pkg/notifx/notifxses"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Container holds infrastructure and the composed auth module.
type Container struct {
	Config *config.Config

	// Infrastructure
	Redis *redis.Client

	// Auth
	OTPStore      *otp.Store
	Delivery      authsession.Delivery
	Analytics     analytics.Sink
	asyncSink     *analytics.AsyncSink
	Controller    *authsession.Controller
	TokenService  auth.TokenService
	AuthHandlers  *authsessionhttp.Handlers
	janitorCancel context.CancelFunc
}

func NewContainer(cfg *config.Config) *Container {
	logx.Info("🔧 Initializing application container...")

	c := &Container{Config: cfg}

	c.initInfrastructure()
	c.initAuth()

	logx.Info("✅ Application container initialized")
	return c
}

// ---------------------------------------------------------------------------
// Infrastructure
// ---------------------------------------------------------------------------

func (c *Container) initInfrastructure() {
	if !c.Config.Analytics.UsesSink(config.SinkRedis) {
		return
	}

	c.Redis = redis.NewClient(&redis.Options{
		Addr:     c.Config.Redis.Address(),
		Password: c.Config.Redis.Password,
		DB:       c.Config.Redis.DB,
	})
	if err := c.Redis.Ping(context.Background()).Err(); err != nil {
		logx.Fatalf("Failed to connect to Redis: %v (required by ANALYTICS_SINKS=redis)", err)
	}
	logx.Info("  ✅ Redis connected")
}

// ---------------------------------------------------------------------------
// Auth module
// ---------------------------------------------------------------------------

func (c *Container) initAuth() {
	cfg := c.Config

	c.OTPStore = otp.NewStore(
		otp.WithTTL(cfg.OTP.TTL),
		otp.WithMaxAttempts(cfg.OTP.MaxAttempts),
	)

	c.Delivery = c.buildDelivery()
	c.Analytics = c.buildAnalytics()

	c.Controller = authsession.NewController(c.OTPStore, c.Delivery, c.Analytics,
		authsession.WithIncludeCodeInEvents(cfg.Analytics.IncludeCodeInEvents),
		authsession.WithDeliveryTimeout(cfg.Notifx.SendTimeout),
	)

	secret := cfg.Session.Secret
	if secret == "" {
		secret = uuid.NewString()
		logx.Warn("SESSION_SECRET not set; using a random secret, tokens will not survive a restart")
	}
	c.TokenService = auth.NewJWTService(secret, cfg.Session.TokenTTL, cfg.Session.Issuer, nil)
	c.AuthHandlers = authsessionhttp.NewHandlers(c.Controller, c.TokenService)

	logx.WithFields(logx.Fields{
		"otp_ttl":          cfg.OTP.TTL,
		"otp_max_attempts": cfg.OTP.MaxAttempts,
		"email_provider":   cfg.Notifx.Provider,
		"analytics_sinks":  cfg.Analytics.Sinks,
	}).Info("  ✅ Auth module ready")
}

func (c *Container) buildDelivery() authsession.Delivery {
	cfg := c.Config.Notifx

	var provider notifx.EmailSender
	switch cfg.Provider {
	case config.ProviderSES:
		ses, err := notifxses.NewFromEnvironment(context.Background(), cfg.AWSRegion, cfg.FromAddress)
		if err != nil {
			logx.WithError(err).Fatal("Failed to configure SES")
		}
		provider = ses
	default:
		provider = notifxconsole.NewConsoleProvider(nil)
	}

	mailer, err := notifx.NewOTPMailer(notifx.NewClient(provider), notifx.OTPMailConfig{
		From:     cfg.FromAddress,
		Subject:  cfg.Subject,
		ValidFor: c.Config.OTP.TTL,
		ConfigID: cfg.ConfigSet,
	})
	if err != nil {
		logx.WithError(err).Fatal("Failed to build OTP mailer")
	}
	return mailer
}

func (c *Container) buildAnalytics() analytics.Sink {
	cfg := c.Config.Analytics

	var sinks analytics.MultiSink
	if cfg.UsesSink(config.SinkLog) {
		sinks = append(sinks, analyticsinfra.NewLogxSink(nil))
	}
	if cfg.UsesSink(config.SinkRedis) && c.Redis != nil {
		sinks = append(sinks, analyticsinfra.NewRedisStreamSink(c.Redis, cfg.Stream, cfg.StreamMaxLen))
	}

	if len(sinks) == 0 {
		return analytics.Nop{}
	}
	if cfg.Async {
		c.asyncSink = analytics.Async(sinks)
		return c.asyncSink
	}
	return sinks
}

// ---------------------------------------------------------------------------
// Lifecycle
// ---------------------------------------------------------------------------

func (c *Container) StartBackgroundServices(ctx context.Context) {
	interval := c.Config.OTP.JanitorInterval
	if interval <= 0 {
		return
	}

	ctx, c.janitorCancel = context.WithCancel(ctx)
	go c.OTPStore.RunJanitor(ctx, interval)
}

func (c *Container) Cleanup() {
	logx.Info("🧹 Cleaning up resources...")

	if c.janitorCancel != nil {
		c.janitorCancel()
	}

	if c.Controller != nil {
		c.Controller.Wait()
	}

	if c.asyncSink != nil {
		c.asyncSink.Wait()
	}

	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			logx.Errorf("Error closing Redis: %v", err)
		} else {
			logx.Info("  ✅ Redis connection closed")
		}
	}

	logx.Info("✅ Cleanup complete")
}
