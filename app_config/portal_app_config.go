package app_config

import (
	"io/ioutil"
	"log"

	"gopkg.in/yaml.v2"
)

// PortalAppConfig customizes binary startup for the api server and the
// notifier.
type PortalAppConfig struct {
	// Public base URL used in notification links.
	SITE_URL string `yaml:"SITE_URL"`
	// From address for all outbound mail. Dispatch refuses to run without it.
	MAIL_FROM string `yaml:"MAIL_FROM"`
	// Seconds a delayed notification run waits after the triggering post
	// event, letting the publishing transaction settle.
	NOTIFY_DELAY_SECOND int64 `yaml:"NOTIFY_DELAY_SECOND"`
	// Weekly digest fire time. Weekday follows time.Weekday numbering,
	// Sunday=0.
	DIGEST_WEEKDAY int `yaml:"DIGEST_WEEKDAY"`
	DIGEST_HOUR    int `yaml:"DIGEST_HOUR"`
	DIGEST_MINUTE  int `yaml:"DIGEST_MINUTE"`
	// Address of the local statsd agent used for dispatch monitoring.
	STATSD_ADDR string `yaml:"STATSD_ADDR"`
}

func ParsePortalAppConfig(path string) PortalAppConfig {
	c := PortalAppConfig{}
	yamlFile, err := ioutil.ReadFile(path)
	if err != nil {
		log.Fatal("yamlFile. get err: ", err.Error())
	}
	err = yaml.Unmarshal(yamlFile, &c)
	if err != nil {
		log.Fatal("Unmarshal: ", err)
	}
	return c
}
