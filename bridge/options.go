package bridge

type Options struct {
	Stdio bool   `short:"s" long:"stdio" description:"serve over stdio instead of http"`
	Addr  string `short:"a" long:"addr" description:"http listen address, overrides TESS_BRIDGE_PORT"`
	Debug bool   `short:"d" long:"debug" description:"enable debug logging"`
}
