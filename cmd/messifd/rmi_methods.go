package main

import (
	"github.com/messif/metrickernel/object"
	"github.com/messif/metrickernel/operation"
	"github.com/messif/metrickernel/rmi"
)

// registerRMIMethods binds the method names a remote rmi.Proxy may name
// in its requests to fresh operation constructors. rmi.Server copies the
// params arriving over the wire into each operation's parameter map before
// dispatch; it does not set the K, QueryObject or Radius fields from them,
// so these operations run with the k=0, empty query vector and radius 0
// they are constructed with here.
func registerRMIMethods(server *rmi.Server) {
	server.RegisterOperation("RankKNN", func() operation.Operation {
		q := object.NewVectorObject(nil, object.L1)
		return operation.NewRankKNNOperation(q, 0, operation.FullData)
	})
	server.RegisterOperation("RankRange", func() operation.Operation {
		q := object.NewVectorObject(nil, object.L1)
		return operation.NewRankRangeOperation(q, 0, 0, operation.FullData)
	})
}
