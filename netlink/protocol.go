// Copyright 2024 The Erigon Authors
// This file is part of Erigon.
//
// Erigon is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Erigon is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Erigon. If not, see <http://www.gnu.org/licenses/>.

package netlink

import (
	"strconv"
	"strings"

	"github.com/coredb/coredb/coreerr"
)

// HelloChannel is the fixed pub/sub channel observers exchange hello
// payloads on (the §6 name; see DESIGN.md on the §4.5.1 variant).
const HelloChannel = "__sentinel__:hello"

// Hello is the eight-field hello payload spec.md §4.5.3/§6 describes.
type Hello struct {
	ObserverIP        string
	ObserverPort      int
	ObserverID        string
	CurrentEpoch      int64
	MasterName        string
	MasterIP          string
	MasterPort        int
	MasterConfigEpoch int64
}

// Encode renders the hello payload as its eight comma-separated fields.
func (h Hello) Encode() string {
	fields := []string{
		h.ObserverIP,
		strconv.Itoa(h.ObserverPort),
		h.ObserverID,
		strconv.FormatInt(h.CurrentEpoch, 10),
		h.MasterName,
		h.MasterIP,
		strconv.Itoa(h.MasterPort),
		strconv.FormatInt(h.MasterConfigEpoch, 10),
	}
	return strings.Join(fields, ",")
}

// ParseHello parses an eight-field hello payload.
func ParseHello(payload string) (Hello, error) {
	f := strings.Split(payload, ",")
	if len(f) != 8 {
		return Hello{}, coreerr.New("netlink.ParseHello", coreerr.MalformedEncoding)
	}
	port, err := strconv.Atoi(f[1])
	if err != nil {
		return Hello{}, coreerr.Wrap("netlink.ParseHello", coreerr.MalformedEncoding, err)
	}
	epoch, err := strconv.ParseInt(f[3], 10, 64)
	if err != nil {
		return Hello{}, coreerr.Wrap("netlink.ParseHello", coreerr.MalformedEncoding, err)
	}
	masterPort, err := strconv.Atoi(f[6])
	if err != nil {
		return Hello{}, coreerr.Wrap("netlink.ParseHello", coreerr.MalformedEncoding, err)
	}
	configEpoch, err := strconv.ParseInt(f[7], 10, 64)
	if err != nil {
		return Hello{}, coreerr.Wrap("netlink.ParseHello", coreerr.MalformedEncoding, err)
	}
	return Hello{
		ObserverIP:        f[0],
		ObserverPort:      port,
		ObserverID:        f[2],
		CurrentEpoch:      epoch,
		MasterName:        f[4],
		MasterIP:          f[5],
		MasterPort:        masterPort,
		MasterConfigEpoch: configEpoch,
	}, nil
}

// IsMasterDownReply is the 3-element reply to
// "SENTINEL is-master-down-by-addr", per spec.md §6.
type IsMasterDownReply struct {
	Down        bool
	LeaderRunID string // "*" when the peer casts no vote
	LeaderEpoch int64
}

// EncodeIsMasterDownReply renders the reply as a comma-joined triple, the
// wire shape this repo's text protocol uses for array-valued replies.
func EncodeIsMasterDownReply(r IsMasterDownReply) string {
	down := "0"
	if r.Down {
		down = "1"
	}
	return strings.Join([]string{down, r.LeaderRunID, strconv.FormatInt(r.LeaderEpoch, 10)}, ",")
}

// ParseIsMasterDownReply parses the 3-element is-master-down-by-addr reply.
func ParseIsMasterDownReply(s string) (IsMasterDownReply, error) {
	f := strings.Split(s, ",")
	if len(f) != 3 {
		return IsMasterDownReply{}, coreerr.New("netlink.ParseIsMasterDownReply", coreerr.MalformedEncoding)
	}
	epoch, err := strconv.ParseInt(f[2], 10, 64)
	if err != nil {
		return IsMasterDownReply{}, coreerr.Wrap("netlink.ParseIsMasterDownReply", coreerr.MalformedEncoding, err)
	}
	return IsMasterDownReply{Down: f[0] == "1", LeaderRunID: f[1], LeaderEpoch: epoch}, nil
}

// Info is the subset of an INFO reply the supervisor parses, per
// spec.md §4.5.3/§6.
type Info struct {
	RunID                      string
	Role                       string // "master" or "slave"
	MasterHost                 string
	MasterPort                 int
	MasterLinkStatus           string // "up" or "down"
	MasterLinkDownSinceSeconds int64
	SlavePriority              int
	SlaveReplOffset            int64
	Replicas                   []ReplicaInfo
}

// ReplicaInfo is one "slaveN:ip=…,port=…" line parsed out of INFO.
type ReplicaInfo struct {
	IP   string
	Port int
}

// ParseInfo parses the newline-separated "key:value" INFO body.
func ParseInfo(body string) Info {
	var info Info
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		k, v, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		switch {
		case k == "run_id":
			info.RunID = v
		case k == "role":
			info.Role = v
		case k == "master_host":
			info.MasterHost = v
		case k == "master_port":
			info.MasterPort, _ = strconv.Atoi(v)
		case k == "master_link_status":
			info.MasterLinkStatus = v
		case k == "master_link_down_since_seconds":
			info.MasterLinkDownSinceSeconds, _ = strconv.ParseInt(v, 10, 64)
		case k == "slave_priority":
			info.SlavePriority, _ = strconv.Atoi(v)
		case k == "slave_repl_offset":
			info.SlaveReplOffset, _ = strconv.ParseInt(v, 10, 64)
		case strings.HasPrefix(k, "slave") && strings.Contains(v, "ip="):
			info.Replicas = append(info.Replicas, parseReplicaLine(v))
		}
	}
	return info
}

func parseReplicaLine(v string) ReplicaInfo {
	var ri ReplicaInfo
	for _, kv := range strings.Split(v, ",") {
		k, val, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		switch k {
		case "ip":
			ri.IP = val
		case "port":
			ri.Port, _ = strconv.Atoi(val)
		}
	}
	return ri
}
