package ratelimit

import (
	"context"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/leadhub/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const keyPattern = "leadhub:ratelimit:%s:%s"

// Policy names one limited endpoint and its bucket shape.
type Policy struct {
	Name  string
	Rate  float64
	Burst int
}

type Policies struct {
	Login      Policy
	LeadCreate Policy
	Webhook    Policy
}

func PoliciesFromConfig(cfg config.RateLimitConfig) Policies {
	return Policies{
		Login:      Policy{Name: "login", Rate: cfg.LoginRate, Burst: cfg.LoginBurst},
		LeadCreate: Policy{Name: "lead_create", Rate: cfg.LeadCreateRate, Burst: cfg.LeadCreateBurst},
		Webhook:    Policy{Name: "payment_webhook", Rate: cfg.WebhookRate, Burst: cfg.WebhookBurst},
	}
}

// Limiter is nil-safe: a nil or disabled limiter allows everything.
type Limiter struct {
	bucket   *TokenBucket
	log      *zap.Logger
	policies Policies
}

type Params struct {
	fx.In

	Lifecycle fx.Lifecycle
	Cfg       config.Config
	Log       *zap.Logger
}

func NewLimiter(p Params) *Limiter {
	log := p.Log.Named("ratelimit")
	policies := PoliciesFromConfig(p.Cfg.RateLimit)

	addr := strings.TrimSpace(p.Cfg.RedisAddr)
	if addr == "" {
		log.Info("rate limiting disabled, REDIS_ADDR not set")
		return &Limiter{log: log, policies: policies}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(p.Cfg.RedisPassword),
		DB:       p.Cfg.RedisDB,
	})
	p.Lifecycle.Append(fx.Hook{
		OnStop: func(context.Context) error {
			return client.Close()
		},
	})

	return NewWithBucket(NewTokenBucket(client), policies, log)
}

func NewWithBucket(bucket *TokenBucket, policies Policies, log *zap.Logger) *Limiter {
	return &Limiter{bucket: bucket, log: log, policies: policies}
}

func (l *Limiter) Enabled() bool {
	return l != nil && l.bucket != nil
}

func (l *Limiter) Policies() Policies {
	if l == nil {
		return Policies{}
	}
	return l.policies
}

// Allow reports whether subject may call the endpoint guarded by policy.
// Redis failures are logged and allowed through.
func (l *Limiter) Allow(ctx context.Context, policy Policy, subject string) Result {
	if !l.Enabled() {
		return Result{Allowed: true}
	}
	key := fmt.Sprintf(keyPattern, policy.Name, strings.TrimSpace(subject))
	result, err := l.bucket.Allow(ctx, key, policy.Rate, policy.Burst)
	if err != nil {
		l.log.Warn("rate limit check failed, allowing request",
			zap.String("policy", policy.Name),
			zap.Error(err),
		)
		return Result{Allowed: true}
	}
	return result
}
