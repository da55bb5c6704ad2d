// Package factory provides a small generic registry used to instantiate modules
// from configuration. A module is named by a type string and configured by a
// map of raw settings; the factory also receives an environment value holding
// the runtime collaborators the module needs.
//
// Example usage:
//
//	reg := factory.NewRegistry[logger.Logger, io.Reader]()
//	reg.Register("file", func(log logger.Logger, conf map[string]any) (io.Reader, error) {
//	    var c struct{ Path string `json:"path"` }
//	    if err := factory.Decode(conf, &c); err != nil {
//	        return nil, err
//	    }
//	    log.Infof("opening %s", c.Path)
//	    return os.Open(c.Path)
//	})
//	r, err := reg.Create(log, factory.ModuleConfig{Type: "file", Conf: map[string]any{"path": "foo"}})
package factory
