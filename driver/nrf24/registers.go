package nrf24

// nRF24L01+ register map.
const (
	regConfig    = 0x00
	regEnAA      = 0x01
	regEnRxAddr  = 0x02
	regSetupAW   = 0x03
	regSetupRetr = 0x04
	regRFCh      = 0x05
	regRFSetup   = 0x06
	regStatus    = 0x07
	regRxAddrP0  = 0x0A
	regTxAddr    = 0x10
	regRxPwP0    = 0x11
	regFIFO      = 0x17
	regDynPD     = 0x1C
	regFeature   = 0x1D
)

// SPI commands.
const (
	cmdWriteReg    = 0x20
	cmdRxPayload   = 0x61
	cmdTxPayload   = 0xA0
	cmdFlushTx     = 0xE1
	cmdFlushRx     = 0xE2
	cmdRxPlWidth   = 0x60
	cmdNop         = 0xFF
)

// STATUS register bits.
const (
	statusRxDR  = 0x40 // payload arrived
	statusTxDS  = 0x20 // payload sent
	statusMaxRT = 0x10 // retransmit budget exhausted
	statusClear = 0x70 // write-1-to-clear mask for all three
)

// CONFIG register values.
const (
	configPowerDown = 0x08 // EN_CRC only, PWR_UP off
	configTxUp      = 0x0E // EN_CRC | CRCO | PWR_UP
	configRxUp      = 0x0F // configTxUp | PRIM_RX
)

// FIFO_STATUS bits.
const fifoRxEmpty = 0x01

// Fixed link parameters (must match the transmitter fleet bit-for-bit).
const (
	setupRetrValue = 0x1F // 500 µs delay, 15 retries
	rfSetupValue   = 0x26 // 250 kbps, 0 dBm
	addressWidth5  = 0x03
	featureDynPD   = 0x04
	dynPDPipe0     = 0x01
	staticPayload  = 32
)
