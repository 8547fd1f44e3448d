package daemon

const (
	homeFlag        = "home"
	forceFlag       = "force"
	apiListenerFlag = "api-listener"
	networkFlag     = "network"
	orderIDFlag     = "order-id"
	targetFlag      = "target"
	principalFlag   = "principal"
)
