package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Config struct {
	App                  App      `mapstructure:",squash"`
	Database             Database `mapstructure:",squash"`
	Importer             Importer `mapstructure:",squash"`
	SecretKey            string   `mapstructure:"secret_key"`
	DefaultAdminUser     string   `mapstructure:"default_admin_user"`
	DefaultAdminPassword string   `mapstructure:"default_admin_password"`
}

type App struct {
	LogLevel string `mapstructure:"log_level"`
}

type Database struct {
	Path string `mapstructure:"database_path"`
}

type Importer struct {
	// Folder es la carpeta que se recorre al arrancar buscando
	// planillas de ventas. Vacío deshabilita la importación inicial.
	Folder string `mapstructure:"import_folder"`
	// LedgerFolder contiene los extractos debe/haber.
	LedgerFolder string `mapstructure:"ledger_folder"`
	// Keyword filtra registros cuya descripción no lo contenga.
	// Vacío deja pasar todo.
	Keyword string `mapstructure:"import_keyword"`
}

func SetDefaults() {
	viper.SetDefault("DATABASE_PATH", "data/ventas.db")

	viper.SetDefault("IMPORT_FOLDER", "")
	viper.SetDefault("LEDGER_FOLDER", "")
	viper.SetDefault("IMPORT_KEYWORD", "")

	viper.SetDefault("SECRET_KEY", "your_secret_key")
	viper.SetDefault("DEFAULT_ADMIN_USER", "admin")
	viper.SetDefault("DEFAULT_ADMIN_PASSWORD", "admin")

	viper.SetDefault("LOG_LEVEL", "info")
}

func NewConfig() (*Config, error) {
	// Primero cargar el .env con godotenv
	loadEnvFile()

	config := &Config{}

	SetDefaults()

	viper.SetConfigType("env")
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		logrus.Debug("usando variables de entorno (viper no pudo leer .env): ", err)
	}

	err := viper.Unmarshal(&config, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	))
	if err != nil {
		return nil, err
	}

	return config, nil
}

// loadEnvFile busca el .env en las ubicaciones habituales.
func loadEnvFile() {
	cwd, err := os.Getwd()
	if err != nil {
		logrus.Warn("no se pudo obtener el directorio actual: ", err)
		return
	}

	locations := []string{
		filepath.Join(cwd, ".env"),
		filepath.Join(filepath.Dir(cwd), ".env"),
		filepath.Join(cwd, "../../.env"),
	}

	for _, location := range locations {
		if err := godotenv.Load(location); err == nil {
			logrus.Debug("archivo .env cargado desde: ", location)
			return
		}
	}
}
