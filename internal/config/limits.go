package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Limits describes the free-tier quota ceilings. Counts reset at local
// midnight in the configured timezone.
type Limits struct {
	DailyTextMessages int `mapstructure:"dailyTextMessages"`
	DailyAudioClips   int `mapstructure:"dailyAudioClips"`

	MaxMessageChars        int `mapstructure:"maxMessageChars"`
	MaxMessageCharsPremium int `mapstructure:"maxMessageCharsPremium"`
	DailyChars             int `mapstructure:"dailyChars"`

	MaxAudioSeconds        int `mapstructure:"maxAudioSeconds"`
	MaxAudioSecondsPremium int `mapstructure:"maxAudioSecondsPremium"`
	DailyAudioSeconds      int `mapstructure:"dailyAudioSeconds"`

	ReceiptWaitMinutes int `mapstructure:"receiptWaitMinutes"`
}

func DefaultLimits() Limits {
	return Limits{
		DailyTextMessages:      3,
		DailyAudioClips:        3,
		MaxMessageChars:        500,
		MaxMessageCharsPremium: 2000,
		DailyChars:             2000,
		MaxAudioSeconds:        60,
		MaxAudioSecondsPremium: 300,
		DailyAudioSeconds:      300,
		ReceiptWaitMinutes:     15,
	}
}

func (l Limits) ReceiptWait() time.Duration {
	return time.Duration(l.ReceiptWaitMinutes) * time.Minute
}

// LimitsHolder exposes the current quota limits and hot-reloads them when
// the limits file changes. An invalid reload is ignored, the previous
// limits stay in effect.
type LimitsHolder struct {
	current atomic.Value // holds Limits
}

func NewLimitsHolder(cfg Config) (*LimitsHolder, error) {
	v := viper.New()

	if cfg.LimitsFile != "" {
		v.SetConfigFile(cfg.LimitsFile)
	} else {
		v.SetConfigName("limits")
		v.SetConfigType("yml")
		v.AddConfigPath("/etc/ahlabot")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("AHLABOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setLimitDefaults(v, DefaultLimits())

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var limits Limits
	if err := v.UnmarshalKey("limits", &limits); err != nil {
		return nil, err
	}
	if err := validateLimits(limits); err != nil {
		return nil, err
	}

	holder := &LimitsHolder{}
	holder.current.Store(limits)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated Limits
		if err := v.UnmarshalKey("limits", &updated); err != nil {
			log.Printf("[limits] reload failed: %v", err)
			return
		}
		if err := validateLimits(updated); err != nil {
			log.Printf("[limits] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[limits] reloaded from %s", e.Name)
	})

	return holder, nil
}

// NewStaticLimits returns a holder pinned to the given limits. Used in tests.
func NewStaticLimits(limits Limits) *LimitsHolder {
	holder := &LimitsHolder{}
	holder.current.Store(limits)
	return holder
}

func (h *LimitsHolder) Get() Limits {
	return h.current.Load().(Limits)
}

func setLimitDefaults(v *viper.Viper, d Limits) {
	v.SetDefault("limits.dailyTextMessages", d.DailyTextMessages)
	v.SetDefault("limits.dailyAudioClips", d.DailyAudioClips)
	v.SetDefault("limits.maxMessageChars", d.MaxMessageChars)
	v.SetDefault("limits.maxMessageCharsPremium", d.MaxMessageCharsPremium)
	v.SetDefault("limits.dailyChars", d.DailyChars)
	v.SetDefault("limits.maxAudioSeconds", d.MaxAudioSeconds)
	v.SetDefault("limits.maxAudioSecondsPremium", d.MaxAudioSecondsPremium)
	v.SetDefault("limits.dailyAudioSeconds", d.DailyAudioSeconds)
	v.SetDefault("limits.receiptWaitMinutes", d.ReceiptWaitMinutes)
}

func validateLimits(l Limits) error {
	if l.DailyTextMessages <= 0 || l.DailyAudioClips <= 0 {
		return errors.New("limits: daily message counts must be positive")
	}
	if l.MaxMessageChars <= 0 || l.DailyChars < l.MaxMessageChars {
		return errors.New("limits: daily char ceiling must cover at least one full message")
	}
	if l.MaxAudioSeconds <= 0 || l.DailyAudioSeconds < l.MaxAudioSeconds {
		return errors.New("limits: daily audio ceiling must cover at least one full clip")
	}
	if l.MaxMessageCharsPremium < l.MaxMessageChars || l.MaxAudioSecondsPremium < l.MaxAudioSeconds {
		return errors.New("limits: premium ceilings cannot be below free ceilings")
	}
	if l.ReceiptWaitMinutes <= 0 {
		return errors.New("limits: receiptWaitMinutes must be positive")
	}
	return nil
}
