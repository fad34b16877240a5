package main

import (
	"log"
	"net/http"
	"path/filepath"
)

// httpConn web server connection parameters
type httpConn struct {
	address string
	port    string
	root    string
}

func main() {
	httpConn := &httpConn{
		address: "localhost",
		port:    "5000",
		root:    "./",
	}
	c := NewConn(httpConn)
	c.Init()
}

// NewConn establish a new http connection
func NewConn(conn *httpConn) *httpConn {
	return conn
}

// Init listen and serves the wasm demo page. The wasm binary must be
// compiled into the served directory first:
//
//	GOOS=js GOARCH=wasm go build -o vec2art.wasm ../
func (c *httpConn) Init() {
	var err error
	c.root, err = filepath.Abs(c.root)
	if err != nil {
		log.Fatalln(err)
	}

	log.Printf("serving %s on %s:%s", c.root, c.address, c.port)
	http.Handle("/", http.StripPrefix("/", http.FileServer(http.Dir(c.root))))

	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// wasm requires the correct mime type to instantiate streaming.
		if filepath.Ext(r.URL.Path) == ".wasm" {
			w.Header().Set("Content-Type", "application/wasm")
		}
		log.Print(r.RemoteAddr + " " + r.Method + " " + r.URL.String())
		http.DefaultServeMux.ServeHTTP(w, r)
	})
	httpServer := http.Server{
		Addr:    c.address + ":" + c.port,
		Handler: handler,
	}
	err = httpServer.ListenAndServe()
	if err != nil {
		log.Fatalln(err)
	}
}
