package graph

import "github.com/dm/meshtop-go/internal/client"

// Model ids derive from identity fields only, never from the opaque
// ids the telemetry source assigns. The same participant therefore
// keeps the same id across fetches, which keeps renders stable when
// the data has not changed.

const unknown = "unknown"

func orUnknown(s string) string {
	if s == "" {
		return unknown
	}
	return s
}

func clusterBoxID(cluster string) string {
	return "box-cluster/" + orUnknown(cluster)
}

func namespaceBoxID(cluster, namespace string) string {
	return "box-ns/" + orUnknown(cluster) + "/" + orUnknown(namespace)
}

func serviceNodeID(cluster, namespace, service string) string {
	return "svc/" + orUnknown(cluster) + "/" + orUnknown(namespace) + "/" + service
}

func workloadNodeID(cluster, namespace, workload string) string {
	return "wl/" + orUnknown(cluster) + "/" + orUnknown(namespace) + "/" + workload
}

func appNodeID(cluster, namespace, app, version string) string {
	id := "app/" + orUnknown(cluster) + "/" + orUnknown(namespace) + "/" + app
	if version != "" {
		id += "/" + version
	}
	return id
}

// nodeID derives the model id for a telemetry node from its identity
// fields. Nodes that carry none of the known identities fall back to
// the wire id so they still materialize, just without cross-fetch
// stability.
func nodeID(n client.NodeData) (string, NodeKind) {
	switch {
	case n.NodeType == client.NodeTypeService || (n.NodeType == "" && n.Service != ""):
		return serviceNodeID(n.Cluster, n.Namespace, n.Service), KindService
	case n.NodeType == client.NodeTypeApp || (n.NodeType == "" && n.Workload == "" && n.App != ""):
		return appNodeID(n.Cluster, n.Namespace, n.App, n.Version), KindApp
	case n.Workload != "":
		return workloadNodeID(n.Cluster, n.Namespace, n.Workload), KindWorkload
	default:
		return "node/" + orUnknown(n.Cluster) + "/" + orUnknown(n.Namespace) + "/" + n.ID, KindWorkload
	}
}
