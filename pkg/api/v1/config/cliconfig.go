package config

// CliConfig is loaded from flags/environment by multiconfig. The sun URL
// carries the site coordinates; formatted=0 asks the service for the
// ISO-8601 timestamps the parser expects.
type CliConfig struct {
	NTPServer         string `default:"0.pool.ntp.org:123"`
	NTPTimeoutSeconds int    `default:"5"`
	TimezoneURL       string `default:"http://worldtimeapi.org/api/ip"`
	SunURL            string `default:"https://api.sunrise-sunset.org/json?lat=37.3382&lng=-121.8863&formatted=0"`

	RelayDriver   string `default:"dummy"`
	ModbusAddress string `default:"127.0.0.1:502"`
	ModbusCoil    int    `default:"0"`

	MQTTAddress  string `default:":1883"`
	ButtonTopic  string `default:"light/button"`
	StatusTopic  string `default:"light/status"`
	MetricsTopic string `default:"light/metrics"`

	MbusDevice     string `default:"/dev/ttyAMA0"`
	MeterModel     string
	MeterPrimaryID string

	LogLevel string `default:"info"`
}
