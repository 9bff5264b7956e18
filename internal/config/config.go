package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type RconConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Password       string `mapstructure:"password"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	// 统一的重试策略：最大尝试次数和两次尝试之间的固定间隔
	MaxAttempts      int `mapstructure:"max_attempts"`
	RetryDelayMillis int `mapstructure:"retry_delay_millis"`
}

func (rc RconConfig) Addr() string {
	return fmt.Sprintf("%s:%d", rc.Host, rc.Port)
}

func (rc RconConfig) Timeout() time.Duration {
	return time.Duration(rc.TimeoutSeconds) * time.Second
}

func (rc RconConfig) RetryDelay() time.Duration {
	return time.Duration(rc.RetryDelayMillis) * time.Millisecond
}

type TrackingConfig struct {
	Enabled               bool `mapstructure:"enabled"`
	UseMod                bool `mapstructure:"use_mod"`
	UpdateIntervalSeconds int  `mapstructure:"update_interval_seconds"`
	ShowDistance          bool `mapstructure:"show_distance"`
	ShowDirection         bool `mapstructure:"show_direction"`
}

type WorldBorderConfig struct {
	Enabled                  bool    `mapstructure:"enabled"`
	InitialSize              float64 `mapstructure:"initial_size"`
	FinalSize                float64 `mapstructure:"final_size"`
	CenterX                  float64 `mapstructure:"center_x"`
	CenterZ                  float64 `mapstructure:"center_z"`
	DelayBeforeShrinkMinutes float64 `mapstructure:"delay_before_shrink_minutes"`
	// 0 表示自动：用完 游戏时长 - 延迟 - 5 分钟缓冲 的全部时间
	ShrinkDurationMinutes float64 `mapstructure:"shrink_duration_minutes"`
}

// SpawnPointConfig 使用指针来区分“未配置”和“配置为 0”
type SpawnPointConfig struct {
	X *float64 `mapstructure:"x"`
	Y *float64 `mapstructure:"y"`
	Z *float64 `mapstructure:"z"`
}

type AbilitiesConfig struct {
	Invisibility bool     `mapstructure:"invisibility"`
	NightVision  bool     `mapstructure:"night_vision"`
	SpecialItems []string `mapstructure:"special_items"`
}

type HttpConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

func (hc HttpConfig) Addr() string {
	return fmt.Sprintf("%s:%d", hc.Host, hc.Port)
}

type AppConfig struct {
	LogLevel string `mapstructure:"log_level"`
	LogFile  string `mapstructure:"log_file"`

	Rcon RconConfig `mapstructure:"rcon"`
	Http HttpConfig `mapstructure:"http"`

	TraitorRatio              float64 `mapstructure:"traitor_ratio"`
	GameDurationMinutes       int     `mapstructure:"game_duration_minutes"`
	MinPlayers                int     `mapstructure:"min_players"`
	TimeUpdateIntervalSeconds int     `mapstructure:"time_update_interval_seconds"`
	PvpDelaySeconds           int     `mapstructure:"pvp_delay_seconds"`
	CountdownSeconds          int     `mapstructure:"countdown_seconds"`
	EndGameDelaySeconds       int     `mapstructure:"end_game_delay_seconds"`
	ResetSkinsToSteve         bool    `mapstructure:"reset_skins_to_steve"`

	PlayerTracking   TrackingConfig    `mapstructure:"player_tracking"`
	WorldBorder      WorldBorderConfig `mapstructure:"world_border"`
	SpawnPoint       SpawnPointConfig  `mapstructure:"spawn_point"`
	TraitorAbilities AbilitiesConfig   `mapstructure:"traitor_abilities"`
}

// InitConfig 加载 JSON 配置文件，所有字段都有默认值
func InitConfig(path string) (*AppConfig, error) {
	v := viper.New()

	v.SetConfigFile(path)
	v.SetConfigType("json")

	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "mole_hunt.log")

	v.SetDefault("rcon.host", "localhost")
	v.SetDefault("rcon.port", 25575)
	v.SetDefault("rcon.password", "")
	v.SetDefault("rcon.timeout_seconds", 5)
	v.SetDefault("rcon.max_attempts", 2)
	v.SetDefault("rcon.retry_delay_millis", 500)

	v.SetDefault("http.host", "127.0.0.1")
	v.SetDefault("http.port", 25580)

	v.SetDefault("traitor_ratio", 0.25)
	v.SetDefault("game_duration_minutes", 30)
	v.SetDefault("min_players", 2)
	v.SetDefault("time_update_interval_seconds", 3)
	v.SetDefault("pvp_delay_seconds", 60)
	v.SetDefault("countdown_seconds", 10)
	v.SetDefault("end_game_delay_seconds", 3)
	v.SetDefault("reset_skins_to_steve", false)

	v.SetDefault("player_tracking.enabled", false)
	v.SetDefault("player_tracking.use_mod", false)
	v.SetDefault("player_tracking.update_interval_seconds", 3)
	v.SetDefault("player_tracking.show_distance", true)
	v.SetDefault("player_tracking.show_direction", true)

	v.SetDefault("world_border.enabled", false)
	v.SetDefault("world_border.initial_size", 2000)
	v.SetDefault("world_border.final_size", 100)
	v.SetDefault("world_border.center_x", 0)
	v.SetDefault("world_border.center_z", 0)
	v.SetDefault("world_border.delay_before_shrink_minutes", 10)
	v.SetDefault("world_border.shrink_duration_minutes", 0)

	v.SetDefault("traitor_abilities.invisibility", false)
	v.SetDefault("traitor_abilities.night_vision", true)
	v.SetDefault("traitor_abilities.special_items", []string{})

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("加载配置失败: %w", err)
	}

	var cfg AppConfig

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	return &cfg, nil
}
