/*
Package iso7816 implements the command/response protocol layer of ISO/IEC 7816-4
smart-card communication.

It sits between an application that wants to run card operations (SELECT,
GET RESPONSE, READ RECORD, ...) and a Transport that moves bytes to and from a card
and imposes its own maximum payload size.

# Fundamentals

The communication with a smart card is strictly half-duplex:
 1. The Host sends a Command APDU (Header + Optional Body).
 2. The Card processes it and returns a Response APDU (Optional Body + Trailer SW1/SW2).

Every physical exchange completes, and its status word is observed, before the next
one is issued. Command chaining and GET RESPONSE both depend on the previous status.

# Status Words

Every response ends with a 2-byte Status Word (SW).
  - 0x9000: Success (OK).
  - 0x61XX: Success, XX more bytes available through GET RESPONSE (00 means 256).
  - 0x6CXX: Wrong length, XX is the length the card expects (00 means 256).
  - Other: opaque to the engine, handed to the operation.

# Execution

A Client executes one Operation at a time against a Transport:
  - If the transport rejects the command data as too large, the command is split
    into chained APDUs (class byte bit 5 set on all but the last one).
  - On 6CXX the command is sent again with the reply region cut to XX bytes.
  - On 61XX, GET RESPONSE commands are issued until the card stops announcing data,
    each one writing into the unfilled tail of the reply buffer.

# Buffers

The engine never allocates storage for protocol data. Command data is borrowed from
the caller and the reply is written into the buffer returned by the operation's
Build: n bytes of buffer hold at most n-2 data bytes followed by SW1 SW2. Every
Response.Data slice aliases that buffer and stays valid until the caller reuses it.

# Usage Example

	client := iso7816.NewClient(transport)

	reply := make([]byte, 258)
	res, err := iso7816.Execute(ctx, client, iso7816.SelectByAID(aid, reply))
	if err != nil {
	    log.Fatal(err) // transport failure or buffer too small
	}

	records, err := res.Records()
	if err != nil {
	    var se *iso7816.StatusError
	    if errors.As(err, &se) {
	        fmt.Println("selection refused:", se.Response.Status.Verbose())
	    }
	    return
	}

	if entry, ok := records.Find(0x84); ok {
	    fmt.Printf("DF Name: %X\n", entry.Value)
	}
*/
package iso7816
