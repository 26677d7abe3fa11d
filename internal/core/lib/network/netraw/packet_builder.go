package netraw

import (
	"encoding/binary"
	"fmt"
	"math/rand"
	"net"
	"strings"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"golang.org/x/net/ipv4"
)

const (
	defaultTTL    = 64
	defaultWindow = 64240
	defaultMSS    = 1460
)

// BuildIPv4Header 构建 IPv4 头部 (交给 ipv4.RawConn 序列化)
func BuildIPv4Header(src, dst net.IP, payloadLen int) *ipv4.Header {
	return &ipv4.Header{
		Version:  ipv4.Version,
		Len:      ipv4.HeaderLen,
		TotalLen: ipv4.HeaderLen + payloadLen,
		ID:       rand.Intn(65535),
		TTL:      defaultTTL,
		Protocol: int(layers.IPProtocolTCP),
		Src:      src.To4(),
		Dst:      dst.To4(),
	}
}

// buildTCPSegment 使用 gopacket 序列化 TCP 头部 (含伪首部校验和)
func buildTCPSegment(src, dst net.IP, tcp *layers.TCP) ([]byte, error) {
	src4, dst4 := src.To4(), dst.To4()
	if src4 == nil || dst4 == nil {
		return nil, fmt.Errorf("only ipv4 is supported: src=%v dst=%v", src, dst)
	}

	// 仅用于计算校验和的伪首部
	ip := &layers.IPv4{
		Version:  4,
		TTL:      defaultTTL,
		Protocol: layers.IPProtocolTCP,
		SrcIP:    src4,
		DstIP:    dst4,
	}
	if err := tcp.SetNetworkLayerForChecksum(ip); err != nil {
		return nil, fmt.Errorf("failed to set checksum layer: %w", err)
	}

	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{
		FixLengths:       true,
		ComputeChecksums: true,
	}
	if err := gopacket.SerializeLayers(buf, opts, tcp); err != nil {
		return nil, fmt.Errorf("failed to serialize tcp segment: %w", err)
	}
	return buf.Bytes(), nil
}

// BuildSYN 构建一个 SYN 报文 (IPv4 头 + TCP 段)
func BuildSYN(src, dst net.IP, srcPort, dstPort uint16, seq uint32) (*ipv4.Header, []byte, error) {
	mss := make([]byte, 2)
	binary.BigEndian.PutUint16(mss, defaultMSS)

	segment, err := buildTCPSegment(src, dst, &layers.TCP{
		SrcPort: layers.TCPPort(srcPort),
		DstPort: layers.TCPPort(dstPort),
		Seq:     seq,
		SYN:     true,
		Window:  defaultWindow,
		Options: []layers.TCPOption{
			{OptionType: layers.TCPOptionKindMSS, OptionLength: 4, OptionData: mss},
		},
	})
	if err != nil {
		return nil, nil, err
	}
	return BuildIPv4Header(src, dst, len(segment)), segment, nil
}

// BuildRST 构建 RST 报文，用于主动拆除 SYN-ACK 之后的半开连接
// seq 应为对端 SYN-ACK 中的 Ack 值
func BuildRST(src, dst net.IP, srcPort, dstPort uint16, seq uint32) (*ipv4.Header, []byte, error) {
	segment, err := buildTCPSegment(src, dst, &layers.TCP{
		SrcPort: layers.TCPPort(srcPort),
		DstPort: layers.TCPPort(dstPort),
		Seq:     seq,
		RST:     true,
	})
	if err != nil {
		return nil, nil, err
	}
	return BuildIPv4Header(src, dst, len(segment)), segment, nil
}

// ParseTCP 从 IP 负载中解析 TCP 头部，不足 20 字节或数据偏移越界时返回错误
func ParseTCP(payload []byte) (*layers.TCP, error) {
	tcp := &layers.TCP{}
	if err := tcp.DecodeFromBytes(payload, gopacket.NilDecodeFeedback); err != nil {
		return nil, fmt.Errorf("failed to decode tcp segment: %w", err)
	}
	return tcp, nil
}

// FlagString 以 nmap 风格缩写输出 TCP 标志, e.g. SYN+ACK -> "SA"
func FlagString(tcp *layers.TCP) string {
	var b strings.Builder
	for _, f := range []struct {
		set  bool
		name byte
	}{
		{tcp.SYN, 'S'}, {tcp.ACK, 'A'}, {tcp.RST, 'R'}, {tcp.FIN, 'F'},
		{tcp.PSH, 'P'}, {tcp.URG, 'U'}, {tcp.ECE, 'E'}, {tcp.CWR, 'C'},
	} {
		if f.set {
			b.WriteByte(f.name)
		}
	}
	return b.String()
}

// Checksum 计算 16-bit One's Complement Checksum
func Checksum(data []byte) uint16 {
	var (
		sum    uint32
		length = len(data)
		index  int
	)

	for length > 1 {
		sum += uint32(binary.BigEndian.Uint16(data[index:]))
		index += 2
		length -= 2
	}

	if length > 0 {
		sum += uint32(data[index]) << 8
	}

	for (sum >> 16) > 0 {
		sum = (sum & 0xffff) + (sum >> 16)
	}

	return uint16(^sum)
}

// PseudoHeader 构建 TCP 伪首部 (src, dst, zero, proto, length)
func PseudoHeader(src, dst net.IP, segmentLen int) []byte {
	ph := make([]byte, 12)
	copy(ph[0:4], src.To4())
	copy(ph[4:8], dst.To4())
	ph[9] = byte(layers.IPProtocolTCP)
	binary.BigEndian.PutUint16(ph[10:], uint16(segmentLen))
	return ph
}

// VerifyTCPChecksum 校验收到的 TCP 段 (raw socket 会收到未经内核 TCP 层校验的报文)
func VerifyTCPChecksum(src, dst net.IP, segment []byte) bool {
	data := append(PseudoHeader(src, dst, len(segment)), segment...)
	return Checksum(data) == 0
}
