package cmd

const (
	// ConfigFlag Flag to specify the configuration file.
	ConfigFlag = "config"
	// OfflineFlag Flag to resolve from local caches only.
	OfflineFlag = "offline"
	// MetricsTextfileFlag Flag to specify a file the collected metrics are written to on exit.
	MetricsTextfileFlag = "metrics-textfile"
	// TimeoutFlag Flag to specify the HTTP client timeout, overriding the config file value.
	TimeoutFlag = "timeout"
	// TCPDialTimeoutFlag Flag to specify the TCP dial timeout (TCP connection establishment).
	TCPDialTimeoutFlag = "tcp-dial-timeout"
	// ResponseHeaderTimeoutFlag Flag to specify the response header timeout.
	ResponseHeaderTimeoutFlag = "response-header-timeout"
	// OutputFlag Flag to specify the output format.
	OutputFlag = "output"
)

// Output formats.
const (
	OutputFormatText = "text"
	OutputFormatJSON = "json"
	OutputFormatYAML = "yaml"
)
