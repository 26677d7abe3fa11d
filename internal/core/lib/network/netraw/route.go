package netraw

import (
	"fmt"
	"net"
)

// LocalIPFor 返回发往 dst 时内核路由选择的本地源地址
// UDP connect 不发送任何报文，只做路由查询
func LocalIPFor(dst net.IP) (net.IP, error) {
	conn, err := net.DialUDP("udp4", nil, &net.UDPAddr{IP: dst, Port: 9})
	if err != nil {
		return nil, fmt.Errorf("no route to %v: %w", dst, err)
	}
	defer conn.Close()

	addr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok || addr.IP.To4() == nil {
		return nil, fmt.Errorf("no ipv4 source address for %v", dst)
	}
	return addr.IP.To4(), nil
}

// ResolveIPv4 将主机名/IP 字面量解析为 IPv4 地址
func ResolveIPv4(host string) (net.IP, error) {
	addr, err := net.ResolveIPAddr("ip4", host)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", host, err)
	}
	return addr.IP.To4(), nil
}
