package daemon

const (
	homeFlag        = "home"
	forceFlag       = "force"
	recoverFlag     = "recover"
	rpcListenerFlag = "rpc-listener"
	keyIDFlag       = "key-id"
	schemeFlag      = "scheme"
	pathFlag        = "path"
)
