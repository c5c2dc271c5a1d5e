package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	exnet "matchcore/internal/net"
)

func main() {
	serverAddr := flag.String("server", "127.0.0.1:9001", "Address of the exchange server")
	uid := flag.Int64("uid", 0, "User id (compulsory)")
	action := flag.String("action", "place", "Action to perform: ['place', 'cancel', 'move', 'reduce']")

	symbol := flag.Int64("symbol", 1, "Symbol id")
	sideStr := flag.String("side", "buy", "Order side: 'buy' or 'sell'")
	price := flag.Int64("price", 100, "Limit price")
	reservePrice := flag.Int64("reserve", 0, "Reserve price (bids only; defaults to price)")
	qtyStr := flag.String("qty", "10", "Quantity or comma-separated list (e.g. 10,20,50)")
	orderId := flag.Int64("orderId", 0, "Order id (cancel/move/reduce)")

	flag.Parse()

	if *uid == 0 {
		fmt.Println("Error: -uid is compulsory.")
		flag.Usage()
		os.Exit(1)
	}

	conn, err := net.Dial("tcp", *serverAddr)
	if err != nil {
		log.Fatalf("Failed to connect to server at %s: %v", *serverAddr, err)
	}
	defer conn.Close()
	fmt.Printf("Connected to %s as uid %d\n", *serverAddr, *uid)

	go readReports(conn)

	side := byte(1) // Bid
	if strings.ToLower(*sideStr) == "sell" {
		side = 0 // Ask
	}

	reserve := *reservePrice
	if reserve == 0 {
		reserve = *price
	}

	switch strings.ToLower(*action) {
	case "place":
		for _, qty := range parseQuantities(*qtyStr) {
			if err := sendNewOrder(conn, *uid, *orderId, *symbol, *price, reserve, qty, side); err != nil {
				log.Printf("Failed to place order (Qty: %d): %v", qty, err)
			} else {
				fmt.Printf("-> Sent order: uid=%d symbol=%d price=%d qty=%d side=%d\n", *uid, *symbol, *price, qty, side)
			}
			time.Sleep(5 * time.Millisecond)
		}

	case "cancel":
		if err := sendCancelOrder(conn, *uid, *orderId, *symbol); err != nil {
			log.Printf("Failed to send cancel request: %v", err)
		} else {
			fmt.Printf("-> Sent cancel request for order %d\n", *orderId)
		}

	case "move":
		if err := sendMoveOrder(conn, *uid, *orderId, *symbol, *price, reserve); err != nil {
			log.Printf("Failed to send move request: %v", err)
		} else {
			fmt.Printf("-> Sent move request for order %d to price %d\n", *orderId, *price)
		}

	case "reduce":
		qty := parseQuantities(*qtyStr)
		reduceBy := int64(0)
		if len(qty) > 0 {
			reduceBy = int64(qty[0])
		}
		if err := sendReduceOrder(conn, *uid, *orderId, *symbol, reduceBy); err != nil {
			log.Printf("Failed to send reduce request: %v", err)
		} else {
			fmt.Printf("-> Sent reduce request for order %d by %d\n", *orderId, reduceBy)
		}

	default:
		log.Fatalf("Unknown action: %s", *action)
	}

	fmt.Println("\nListening for reports... (Press Ctrl+C to exit)")
	select {}
}

func parseQuantities(input string) []uint64 {
	parts := strings.Split(input, ",")
	var result []uint64
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if val, err := strconv.ParseUint(p, 10, 64); err == nil {
			result = append(result, val)
		} else {
			log.Printf("Warning: Invalid quantity '%s', skipping.", p)
		}
	}
	return result
}

func sendNewOrder(conn net.Conn, uid, orderId, symbol, price, reservePrice int64, qty uint64, side byte) error {
	totalLen := exnet.BaseMessageHeaderLen + exnet.NewOrderMessageHeaderLen
	buf := make([]byte, totalLen)

	binary.BigEndian.PutUint16(buf[0:2], uint16(exnet.NewOrder))
	binary.BigEndian.PutUint64(buf[2:10], uint64(uid))
	binary.BigEndian.PutUint64(buf[10:18], uint64(orderId))
	binary.BigEndian.PutUint32(buf[18:22], uint32(symbol))
	binary.BigEndian.PutUint64(buf[22:30], uint64(price))
	binary.BigEndian.PutUint64(buf[30:38], uint64(reservePrice))
	binary.BigEndian.PutUint64(buf[38:46], qty)
	buf[46] = side
	buf[47] = 0 // GTC
	buf[48] = 0 // no optional fields

	_, err := conn.Write(buf)
	return err
}

func sendCancelOrder(conn net.Conn, uid, orderId, symbol int64) error {
	totalLen := exnet.BaseMessageHeaderLen + exnet.CancelOrderMessageHeaderLen
	buf := make([]byte, totalLen)
	binary.BigEndian.PutUint16(buf[0:2], uint16(exnet.CancelOrder))
	binary.BigEndian.PutUint64(buf[2:10], uint64(uid))
	binary.BigEndian.PutUint64(buf[10:18], uint64(orderId))
	binary.BigEndian.PutUint32(buf[18:22], uint32(symbol))
	_, err := conn.Write(buf)
	return err
}

func sendMoveOrder(conn net.Conn, uid, orderId, symbol, newPrice, reservePrice int64) error {
	totalLen := exnet.BaseMessageHeaderLen + exnet.MoveOrderMessageHeaderLen
	buf := make([]byte, totalLen)
	binary.BigEndian.PutUint16(buf[0:2], uint16(exnet.MoveOrder))
	binary.BigEndian.PutUint64(buf[2:10], uint64(uid))
	binary.BigEndian.PutUint64(buf[10:18], uint64(orderId))
	binary.BigEndian.PutUint32(buf[18:22], uint32(symbol))
	binary.BigEndian.PutUint64(buf[22:30], uint64(newPrice))
	binary.BigEndian.PutUint64(buf[30:38], uint64(reservePrice))
	_, err := conn.Write(buf)
	return err
}

func sendReduceOrder(conn net.Conn, uid, orderId, symbol, reduceBy int64) error {
	totalLen := exnet.BaseMessageHeaderLen + exnet.ReduceOrderMessageHeaderLen
	buf := make([]byte, totalLen)
	binary.BigEndian.PutUint16(buf[0:2], uint16(exnet.ReduceOrder))
	binary.BigEndian.PutUint64(buf[2:10], uint64(uid))
	binary.BigEndian.PutUint64(buf[10:18], uint64(orderId))
	binary.BigEndian.PutUint32(buf[18:22], uint32(symbol))
	binary.BigEndian.PutUint64(buf[22:30], uint64(reduceBy))
	_, err := conn.Write(buf)
	return err
}

// readReports continuously reads and prints Report messages from the server.
func readReports(conn net.Conn) {
	const fixedHeaderLen = 1 + 1 + 8 + 8 + 4 + 8 + 8 + 8 + 8 + 4

	for {
		headerBuf := make([]byte, fixedHeaderLen)
		if _, err := io.ReadFull(conn, headerBuf); err != nil {
			if err != io.EOF {
				log.Printf("Connection lost: %v", err)
			}
			os.Exit(0)
		}

		msgType := headerBuf[0]
		resultCode := headerBuf[1]
		orderId := binary.BigEndian.Uint64(headerBuf[10:18])
		symbol := binary.BigEndian.Uint32(headerBuf[18:22])
		price := binary.BigEndian.Uint64(headerBuf[22:30])
		size := binary.BigEndian.Uint64(headerBuf[30:38])
		matchedOrderId := binary.BigEndian.Uint64(headerBuf[38:46])
		errStrLen := binary.BigEndian.Uint32(headerBuf[54:58])

		errStr := ""
		if errStrLen > 0 {
			errBuf := make([]byte, errStrLen)
			if _, err := io.ReadFull(conn, errBuf); err != nil {
				log.Printf("Error reading report body: %v", err)
				break
			}
			errStr = string(errBuf)
		}

		if exnet.ReportMessageType(msgType) == exnet.ErrorReport {
			fmt.Printf("\n[SERVER ERROR] %s\n", errStr)
			continue
		}
		fmt.Printf("\n[REPORT %d] resultCode=%d symbol=%d orderId=%d price=%d size=%d matched=%d\n",
			msgType, resultCode, symbol, orderId, price, size, matchedOrderId)
	}
}
