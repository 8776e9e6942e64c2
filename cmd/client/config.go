package main

type Config struct {
	ServerURL string `env:"CHAT_SERVER_URL,default=http://localhost:5000"`
	Token     string `env:"CHAT_TOKEN,required=true"`
	PeerID    string `env:"CHAT_PEER_ID"`
	PeerKind  string `env:"CHAT_PEER_KIND"`
	PeerName  string `env:"CHAT_PEER_NAME"`
	LogLevel  string `env:"LOG_LEVEL,default=info"`
}
