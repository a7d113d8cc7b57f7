package config

import (
	"os"

	"github.com/go-yaml/yaml"
)

type Config struct {
	NodeInfo NodeInfo `yaml:"nodeInfo"`
	Server   Server   `yaml:"server"`
}

type NodeInfo struct {
	NodeName        string `yaml:"nodeName"`
	NodeDescription string `yaml:"nodeDescription"`
}

type Server struct {
	Addr        string `yaml:"addr"`
	Port        uint16 `yaml:"port"`
	ResourceDir string `yaml:"resourceDir"`

	// ExposeURLBase is the public base URL the mirror is served under,
	// used to build absolute links in discovery documents.
	ExposeURLBase string `yaml:"exposeUrlBase"`

	EnableTrace   bool   `yaml:"enableTrace"`
	TraceEndpoint string `yaml:"traceEndpoint"`
}

func Load(path string) (Config, error) {

	file, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer file.Close()

	var config Config
	err = yaml.NewDecoder(file).Decode(&config)
	if err != nil {
		return Config{}, err
	}

	if config.Server.Addr == "" {
		config.Server.Addr = "0.0.0.0"
	}
	if config.Server.Port == 0 {
		config.Server.Port = 8080
	}

	return config, nil
}
