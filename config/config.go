package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server Server `yaml:"server"`
}

type Server struct {
	Jobstore Jobstore `yaml:"jobstore"`
	LDAP     LDAP     `yaml:"ldap"`
	LSF      LSF      `yaml:"lsf"`
	Sync     Sync     `yaml:"sync"`
	Submit   Submit   `yaml:"submit"`
}

// Jobstore configures the MySQL database that records submissions.
type Jobstore struct {
	ClusterName     string `yaml:"clusterName"`
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	User            string `yaml:"user"`
	Password        string `yaml:"password"`
	Database        string `yaml:"database"`
	Charset         string `yaml:"charset"`
	ParseTime       bool   `yaml:"parseTime"`
	Loc             string `yaml:"loc"`
	TLS             string `yaml:"tls"`
	MaxOpenConns    int    `yaml:"maxOpenConns"`
	MaxIdleConns    int    `yaml:"maxIdleConns"`
	ConnMaxLifetime string `yaml:"connMaxLifetime"`
}

type LDAP struct {
	Host               string `yaml:"host"`
	Port               int    `yaml:"port"`
	UseTLS             bool   `yaml:"useTLS"`
	StartTLS           bool   `yaml:"startTLS"`
	InsecureSkipVerify bool   `yaml:"insecureSkipVerify"`
	ServerName         string `yaml:"serverName"`
	RootCAFile         string `yaml:"rootCAFile"`
	ClientCertFile     string `yaml:"clientCertFile"`
	ClientKeyFile      string `yaml:"clientKeyFile"`
	BindDN             string `yaml:"bindDN"`
	BindPassword       string `yaml:"bindPassword"`
	BaseDN             string `yaml:"baseDN"`
	ConnectTimeout     string `yaml:"connectTimeout"`
	ReadTimeout        string `yaml:"readTimeout"`
}

// LSF locates the batch system command-line tools. An empty BinDir means
// bsub/bjobs/bkill/bqueues are resolved from PATH.
type LSF struct {
	BinDir       string `yaml:"binDir"`
	DefaultQueue string `yaml:"defaultQueue"`
}

// Sync controls the periodic job-status refresh.
type Sync struct {
	Enabled  bool   `yaml:"enabled"`
	Schedule string `yaml:"schedule"`
}

// Submit holds descriptor defaults applied to incoming submissions when
// the request leaves a field empty. This section is hot-reloadable, see
// Watcher.
type Submit struct {
	Project    string `yaml:"project"`
	OutputPath string `yaml:"outputPath"`
	MemoryMB   int    `yaml:"memoryMB"`
	WallClock  string `yaml:"wallClock"`
	WorkDir    string `yaml:"workDir"`
	CondaEnv   string `yaml:"condaEnv"`
	RatePerSec int    `yaml:"ratePerSec"`
}

// Load reads a YAML config file from the given path and unmarshals into Config.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
