package app

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	localcred "github.com/unstable-code/angple/internal/auth/credentials"
	"github.com/unstable-code/angple/internal/auth/handler"
	"github.com/unstable-code/angple/internal/bridge"
	"github.com/unstable-code/angple/internal/config"
	"github.com/unstable-code/angple/internal/jwt"
	"github.com/unstable-code/angple/internal/member"
	"github.com/unstable-code/angple/internal/middleware"
	oauthcred "github.com/unstable-code/angple/internal/oauth/credentials"
	"github.com/unstable-code/angple/internal/oauth/provider"
	"github.com/unstable-code/angple/internal/oauth/provider/apple"
	"github.com/unstable-code/angple/internal/oauth/provider/facebook"
	"github.com/unstable-code/angple/internal/oauth/provider/google"
	"github.com/unstable-code/angple/internal/oauth/provider/kakao"
	"github.com/unstable-code/angple/internal/oauth/provider/naver"
	"github.com/unstable-code/angple/internal/oauth/provider/payco"
	"github.com/unstable-code/angple/internal/oauth/provider/twitter"
	"github.com/unstable-code/angple/internal/oauth/state"
	"github.com/unstable-code/angple/internal/session"
	"github.com/unstable-code/angple/internal/token"
)

func setupHTTP(ctx context.Context, cfg config.Config) (*gin.Engine, func() error, error) {

	infra, err := setupInfra(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	// ----------------------------
	// Dependencies
	// ----------------------------

	var sessionRepo session.Repository
	if cfg.SessionBackend == "redis" {
		sessionRepo = session.NewRedisRepository(infra.Redis.Client)
	} else {
		sessionRepo = session.NewPostgresRepository(infra.DB)
	}
	sessions := session.NewService(sessionRepo)
	tokens := token.NewService(token.NewPostgresRepository(infra.DB))

	members := member.NewPostgresRepository(infra.DB)
	links := member.NewPostgresSocialLinkRepository(infra.DB)
	creds := member.NewPostgresCredentialRepository(infra.DB)

	bridgeSvc := bridge.NewService(members, links)
	passwords := localcred.NewService(members, creds)
	issuer := jwt.NewIssuer(cfg.JWTSecret, cfg.JWTLegacySecret)
	states := state.NewChannel(cfg.CookieSecure())

	adapters, err := buildAdapters(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	registry := provider.NewRegistry(adapters...)

	authHandler := handler.New(
		handler.Config{
			LoginURL: cfg.LoginURL,
			Secure:   cfg.CookieSecure(),
		},
		registry,
		states,
		bridgeSvc,
		sessions,
		tokens,
		issuer,
		members,
		passwords,
	)

	go runSweeper(ctx, cfg.SweepInterval, sessions, tokens)

	// ----------------------------
	// Router
	// ----------------------------

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.Authenticate(sessions, members, issuer))
	router.Use(middleware.CSRF())

	// ----------------------------
	// Public Routes
	// ----------------------------

	authHandler.RegisterRoutes(router)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// ----------------------------
	// Protected API Routes
	// ----------------------------

	api := router.Group("/api")
	api.Use(middleware.RequireAuth())

	api.GET("/me", func(c *gin.Context) {
		m := middleware.MemberFrom(c)
		c.JSON(200, gin.H{
			"id":       m.ID,
			"nickname": m.Nickname,
			"level":    m.Level,
			"email":    m.Email,
		})
	})

	// ----------------------------
	// Cleanup
	// ----------------------------

	return router, func() error {
		return infra.DB.Close()
	}, nil
}

// buildAdapters constructs an adapter for every provider with
// credentials configured. Missing credentials skip the provider rather
// than failing startup.
func buildAdapters(ctx context.Context, cfg config.Config) ([]provider.Adapter, error) {
	cache := oauthcred.NewCache(oauthcred.StaticSource{
		"naver":    {ClientID: cfg.NaverClientID, ClientSecret: cfg.NaverClientSecret},
		"kakao":    {ClientID: cfg.KakaoClientID, ClientSecret: cfg.KakaoClientSecret},
		"facebook": {ClientID: cfg.FacebookClientID, ClientSecret: cfg.FacebookClientSecret},
		"twitter":  {ClientID: cfg.TwitterClientID, ClientSecret: cfg.TwitterClientSecret},
		"payco":    {ClientID: cfg.PaycoClientID, ClientSecret: cfg.PaycoClientSecret},
		"apple":    {ClientID: cfg.AppleClientID},
	})

	callback := func(name string) string {
		return cfg.PublicBaseURL + "/oauth/callback/" + name
	}

	var adapters []provider.Adapter

	if cfg.NaverClientID != "" {
		adapters = append(adapters, naver.New(cache, callback("naver")))
	}
	if cfg.KakaoClientID != "" {
		adapters = append(adapters, kakao.New(cache, callback("kakao")))
	}
	if cfg.FacebookClientID != "" {
		adapters = append(adapters, facebook.New(cache, callback("facebook")))
	}
	if cfg.TwitterClientID != "" {
		adapters = append(adapters, twitter.New(cache, callback("twitter")))
	}
	if cfg.PaycoClientID != "" {
		adapters = append(adapters, payco.New(cache, callback("payco")))
	}

	if cfg.GoogleClientID != "" {
		googleAdapter, err := google.New(
			ctx,
			cfg.GoogleClientID,
			cfg.GoogleClientSecret,
			callback("google"),
		)
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, googleAdapter)
	}

	if cfg.AppleClientID != "" {
		appleAdapter, err := apple.New(
			cache,
			callback("apple"),
			cfg.AppleTeamID,
			cfg.AppleKeyID,
			cfg.ApplePrivateKeyPath,
		)
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, appleAdapter)
	}

	return adapters, nil
}
