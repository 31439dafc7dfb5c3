package config

// NotifxConfig configures the notification system.
type NotifxConfig struct {
	Provider    string `env:"NOTIFX_PROVIDER" envDefault:"console"`
	FromAddress string `env:"NOTIFX_FROM_ADDRESS" envDefault:"noreply@hypeframe.ai"`
	FromName    string `env:"NOTIFX_FROM_NAME" envDefault:"Monarch"`
	AWSRegion   string `env:"NOTIFX_AWS_REGION" envDefault:"us-east-1"`
}
