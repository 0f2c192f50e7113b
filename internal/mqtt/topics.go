package mqtt

import "strings"

// Topic schema shared by both nodes:
//
//	pi/chat/inbox/<node>     QoS 1  chat envelopes addressed to <node>
//	pi/status/<node>/online  QoS 0  retained presence heartbeat ("online"/"offline")
//	pi/chat/topic/<node>     QoS 0  retained conversation subject announced by <node>
const (
	inboxPrefix    = "pi/chat/inbox/"
	presencePrefix = "pi/status/"
	presenceSuffix = "/online"
	subjectPrefix  = "pi/chat/topic/"
)

func inboxTopic(node string) string {
	return inboxPrefix + node
}

func presenceTopic(node string) string {
	return presencePrefix + node + presenceSuffix
}

func subjectTopic(node string) string {
	return subjectPrefix + node
}

// presenceNode extracts the node id from a presence topic, or "" when the
// topic does not match the schema.
func presenceNode(topic string) string {
	if !strings.HasPrefix(topic, presencePrefix) || !strings.HasSuffix(topic, presenceSuffix) {
		return ""
	}
	node := strings.TrimSuffix(strings.TrimPrefix(topic, presencePrefix), presenceSuffix)
	if node == "" || strings.Contains(node, "/") {
		return ""
	}
	return node
}

// subjectNode extracts the node id from a subject broadcast topic.
func subjectNode(topic string) string {
	node := strings.TrimPrefix(topic, subjectPrefix)
	if node == topic || node == "" || strings.Contains(node, "/") {
		return ""
	}
	return node
}
