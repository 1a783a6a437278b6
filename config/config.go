// Package config loads the viewer settings from YAML, with secrets and
// overrides taken from the environment (optionally seeded from a .env file).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const DefaultPath = "config/viewer.yaml"

// Environment overrides.
const (
	EnvS3Region   = "CUBE_S3_REGION"
	EnvS3Endpoint = "CUBE_S3_ENDPOINT"
	EnvLogLevel   = "CUBE_LOG_LEVEL"
	EnvAccessKey  = "AWS_ACCESS_KEY_ID"
	EnvSecretKey  = "AWS_SECRET_ACCESS_KEY"
)

type Window struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Title  string `yaml:"title"`
	VSync  bool   `yaml:"vsync"`
}

type Camera struct {
	FOV  float32 `yaml:"fov"`
	Near float32 `yaml:"near"`
	Far  float32 `yaml:"far"`
	Z    float32 `yaml:"z"`
}

type S3 struct {
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"-"`
	SecretKey string `yaml:"-"`
}

type Config struct {
	Window   Window  `yaml:"window"`
	Camera   Camera  `yaml:"camera"`
	CubeSize float32 `yaml:"cubeSize"`
	// TextSurface is the pixel size of each face texture.
	TextSurface int     `yaml:"textSurface"`
	FontSize    float64 `yaml:"fontSize"`

	Listen string `yaml:"listen"`
	Preset string `yaml:"preset"`
	Watch  bool   `yaml:"watch"`
	// AssetDir resolves relative image paths.
	AssetDir string `yaml:"assetDir"`

	S3       S3     `yaml:"s3"`
	LogLevel string `yaml:"logLevel"`
}

func Default() Config {
	return Config{
		Window:      Window{Width: 1280, Height: 720, Title: "Album Cube", VSync: true},
		Camera:      Camera{FOV: 75, Near: 0.1, Far: 1000, Z: 5},
		CubeSize:    2.5,
		TextSurface: 256,
		FontSize:    40,
		S3:          S3{Region: "us-east-1"},
		LogLevel:    "info",
	}
}

// Load reads path over Default. A missing file is not an error. envFile, when
// non-empty, is loaded into the process environment first; variables already
// set win.
func Load(path, envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return Config{}, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %q: %w", path, err)
			}
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvS3Region); v != "" {
		c.S3.Region = v
	}
	if v := os.Getenv(EnvS3Endpoint); v != "" {
		c.S3.Endpoint = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
	c.S3.AccessKey = os.Getenv(EnvAccessKey)
	c.S3.SecretKey = os.Getenv(EnvSecretKey)
}

func (c Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("config: window size %dx%d", c.Window.Width, c.Window.Height)
	}
	if c.CubeSize <= 0 {
		return fmt.Errorf("config: cubeSize %v", c.CubeSize)
	}
	if c.TextSurface <= 0 || c.FontSize <= 0 {
		return fmt.Errorf("config: text surface %d font %v", c.TextSurface, c.FontSize)
	}
	if c.Camera.FOV <= 0 || c.Camera.FOV >= 180 || c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near {
		return fmt.Errorf("config: camera %+v", c.Camera)
	}
	return nil
}
