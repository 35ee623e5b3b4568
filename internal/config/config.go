package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/deadcat-network/deadcat/common"
	"github.com/deadcat-network/deadcat/common/covenant"
	"github.com/deadcat-network/deadcat/common/covenant/digest"
	"github.com/deadcat-network/deadcat/internal/core/application"
	"github.com/deadcat-network/deadcat/internal/core/ports"
	"github.com/deadcat-network/deadcat/internal/infrastructure/chain/esplora"
	"github.com/deadcat-network/deadcat/internal/infrastructure/db"
	remoteengine "github.com/deadcat-network/deadcat/internal/infrastructure/engine/remote"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

var (
	supportedDbs = supportedType{
		"badger":   {},
		"inmemory": {},
	}
	supportedEngines = supportedType{
		"digest": {},
		"remote": {},
	}
	supportedNetworks = supportedType{
		common.Liquid.Name:        {},
		common.LiquidTestNet.Name: {},
		common.LiquidRegTest.Name: {},
	}
)

type Config struct {
	Datadir    string
	DbDir      string
	Network    common.Network
	LogLevel   int
	EsploraURL string
	DbType     string
	EngineType string
	EngineURL  string

	engine covenant.Engine
	chain  ports.ChainSource
	store  ports.DiscoveryStore
	svc    application.Service
}

func (c *Config) String() string {
	json, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Sprintf("error while marshalling config JSON: %s", err)
	}
	return string(json)
}

var (
	Datadir    = "DATADIR"
	Network    = "NETWORK"
	LogLevel   = "LOG_LEVEL"
	EsploraURL = "ESPLORA_URL"
	DbType     = "DB_TYPE"
	EngineType = "ENGINE_TYPE"
	EngineURL  = "ENGINE_URL"

	defaultDatadir    = btcutil.AppDataDir("deadcat", false)
	defaultNetwork    = common.Liquid.Name
	defaultLogLevel   = 4
	defaultEsploraURL = "https://blockstream.info/liquid/api"
	defaultDbType     = "badger"
	defaultEngineType = "remote"
)

func LoadConfig() (*Config, error) {
	viper.SetEnvPrefix("DEADCAT")
	viper.AutomaticEnv()

	viper.SetDefault(Datadir, defaultDatadir)
	viper.SetDefault(Network, defaultNetwork)
	viper.SetDefault(LogLevel, defaultLogLevel)
	viper.SetDefault(EsploraURL, defaultEsploraURL)
	viper.SetDefault(DbType, defaultDbType)
	viper.SetDefault(EngineType, defaultEngineType)

	net, err := common.NetworkFromString(viper.GetString(Network))
	if err != nil {
		return nil, err
	}

	if err := initDatadir(); err != nil {
		return nil, fmt.Errorf("error while creating datadir: %s", err)
	}

	return &Config{
		Datadir:    viper.GetString(Datadir),
		DbDir:      filepath.Join(viper.GetString(Datadir), "db"),
		Network:    net,
		LogLevel:   viper.GetInt(LogLevel),
		EsploraURL: viper.GetString(EsploraURL),
		DbType:     strings.ToLower(viper.GetString(DbType)),
		EngineType: strings.ToLower(viper.GetString(EngineType)),
		EngineURL:  viper.GetString(EngineURL),
	}, nil
}

func initDatadir() error {
	datadir := viper.GetString(Datadir)
	return makeDirectoryIfNotExists(datadir)
}

func makeDirectoryIfNotExists(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return os.MkdirAll(path, os.ModeDir|0755)
	}
	return nil
}

func (c *Config) Validate() error {
	if !supportedNetworks.supports(c.Network.Name) {
		return fmt.Errorf("network not supported, please select one of: %s", supportedNetworks)
	}
	if !supportedDbs.supports(c.DbType) {
		return fmt.Errorf("db type not supported, please select one of: %s", supportedDbs)
	}
	if !supportedEngines.supports(c.EngineType) {
		return fmt.Errorf("engine type not supported, please select one of: %s", supportedEngines)
	}
	if c.EngineType == "remote" && len(c.EngineURL) <= 0 {
		return fmt.Errorf("missing engine url for remote engine")
	}
	if c.EngineType == "digest" && c.Network.Name != common.LiquidRegTest.Name {
		return fmt.Errorf("digest engine can only be used on %s", common.LiquidRegTest.Name)
	}
	if len(c.EsploraURL) <= 0 {
		return fmt.Errorf("missing esplora url")
	}

	if err := c.engineService(); err != nil {
		return err
	}
	if err := c.chainSource(); err != nil {
		return err
	}
	if err := c.discoveryStore(); err != nil {
		return err
	}
	return c.appService()
}

func (c *Config) AppService() (application.Service, error) {
	if c.svc == nil {
		if err := c.Validate(); err != nil {
			return nil, err
		}
	}
	return c.svc, nil
}

func (c *Config) engineService() error {
	var engine covenant.Engine
	var err error
	switch c.EngineType {
	case "digest":
		log.Warn("using digest engine, covenant outputs are not enforceable on chain")
		engine = digest.NewEngine()
	case "remote":
		engine, err = remoteengine.NewEngine(c.EngineURL, nil)
	default:
		err = fmt.Errorf("unknown engine type")
	}
	if err != nil {
		return err
	}

	c.engine = engine
	return nil
}

func (c *Config) chainSource() error {
	svc, err := esplora.NewService(c.EsploraURL, nil)
	if err != nil {
		return err
	}
	c.chain = svc
	return nil
}

func (c *Config) discoveryStore() error {
	var dataStoreConfig []interface{}
	logger := log.New()

	switch c.DbType {
	case "badger":
		dataStoreConfig = []interface{}{c.DbDir, logger}
	case "inmemory":
		dataStoreConfig = []interface{}{"", logger}
	default:
		return fmt.Errorf("unknown db type")
	}

	svc, err := db.NewService(db.ServiceConfig{
		DataStoreType:   "badger",
		DataStoreConfig: dataStoreConfig,
	})
	if err != nil {
		return err
	}

	c.store = svc
	return nil
}

func (c *Config) appService() error {
	svc, err := application.NewService(c.Network, c.engine, c.chain, c.store)
	if err != nil {
		return err
	}

	c.svc = svc
	return nil
}

type supportedType map[string]struct{}

func (t supportedType) String() string {
	types := make([]string, 0, len(t))
	for tt := range t {
		types = append(types, tt)
	}
	return strings.Join(types, " | ")
}

func (t supportedType) supports(typeStr string) bool {
	_, ok := t[typeStr]
	return ok
}
